package errors

import "errors"

var (
	ErrInvalidRequest           = errors.New("badge ledger input is invalid")
	ErrUnauthorized             = errors.New("caller is not a trusted issuer for this org")
	ErrOrgAuthorityRequired     = errors.New("caller does not hold org authority")
	ErrBadgeAlreadyExists       = errors.New("badge already exists for this issuer")
	ErrBadgeNotFound            = errors.New("badge is not registered for this issuer")
	ErrAchievementVetoed        = errors.New("account preferences vetoed achievement recording")
	ErrMalformedNotification    = errors.New("template notification does not decode to an org/issuer/badge triple")
	ErrResourceExhausted        = errors.New("mint count exceeds the per-call mint ceiling")
	ErrIdempotencyKeyConflict   = errors.New("idempotency key already used with different payload")
	ErrRepositoryInvariantBroke = errors.New("badge ledger repository invariant violated")
)
