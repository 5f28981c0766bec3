package ports

import (
	"context"
	"encoding/json"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
)

// EventEnvelope is the wire shape carried on the bus and inside outbox rows.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

// OutboxMessage is one staged side effect, persisted inside the same
// transaction as the ledger mutation that requires it.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string
	RetryCount   int
	CreatedAt    time.Time
}

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

type IssuerRepository interface {
	// AddTrustedIssuer inserts issuer into the org's trust set. Duplicate
	// grants are silently idempotent; the bool reports whether a row was
	// actually inserted.
	AddTrustedIssuer(ctx context.Context, orgID string, issuerID string) (bool, error)
	ListTrustedIssuers(ctx context.Context, orgID string) ([]entities.TrustedIssuer, error)
}

// OrgPurgeResult counts the rows removed by an org deletion.
type OrgPurgeResult struct {
	Issuers      int
	Badges       int
	Achievements int
}

type OrgRepository interface {
	// PurgeOrg removes the org's trust set, badges and achievements in one
	// atomic unit.
	PurgeOrg(ctx context.Context, orgID string) (OrgPurgeResult, error)
}

type BadgeRepository interface {
	// GetBadge looks a badge up by its (issuer, name) composite key.
	GetBadge(ctx context.Context, orgID string, issuerID string, name string) (entities.Badge, error)
	ListBadges(ctx context.Context, orgID string) ([]entities.Badge, error)
	// CreateBadgeWithOutbox allocates the org's next badge id, persists the
	// badge row and the staged side effects atomically. Fails with
	// ErrBadgeAlreadyExists when the (issuer, name) pair is taken.
	CreateBadgeWithOutbox(ctx context.Context, badge entities.Badge, messages []OutboxMessage) (entities.Badge, error)
	// SetTemplateID writes the external template id back onto the matching
	// badge row. Fails with ErrBadgeNotFound on a miss; a miss signals an
	// integrity problem between the two systems and must not be dropped.
	SetTemplateID(ctx context.Context, orgID string, issuerID string, name string, templateID int32) error
}

// RecordAchievementParams is the atomic write unit for one achievement:
// rarity bump, create-or-increment row, and staged side effects together.
type RecordAchievementParams struct {
	OrgID     string
	IssuerID  string
	BadgeName string
	AccountID string
	Count     uint64
	Messages  []OutboxMessage
}

type RecordAchievementRow struct {
	BadgeID      uint64
	RowID        uint64
	NewlyCreated bool
	Count        uint64
	RarityCount  uint64
}

type AchievementRepository interface {
	GetAchievement(ctx context.Context, orgID string, accountID string, badgeID uint64) (entities.Achievement, bool, error)
	ListAchievementsByAccount(ctx context.Context, orgID string, accountID string) ([]entities.Achievement, error)
	RecordAchievementWithOutbox(ctx context.Context, params RecordAchievementParams) (RecordAchievementRow, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
	// MarkOutboxFailed bumps the retry counter; terminal moves the row to the
	// failed status so the relay stops replaying it.
	MarkOutboxFailed(ctx context.Context, outboxID string, retryCount int, terminal bool) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type EventDedupStore interface {
	// ReserveEvent records the event id and reports whether it was already
	// processed with the same payload hash.
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// PreferenceService is the account-preferences allow list. CheckAllow runs
// before any achievement write; an error vetoes the whole operation.
type PreferenceService interface {
	CheckAllow(ctx context.Context, orgID string, accountID string) error
}

// BillingService deducts metered usage, once per top-level mutating call.
type BillingService interface {
	UseCredit(ctx context.Context, orgID string, bytesUsed uint64) error
}

type CreateTemplateRequest struct {
	Creator             string            `json:"creator"`
	Collection          string            `json:"collection"`
	Schema              string            `json:"schema"`
	Transferable        bool              `json:"transferable"`
	Burnable            bool              `json:"burnable"`
	MaxSupply           uint32            `json:"max_supply"`
	ImmutableAttributes map[string]string `json:"immutable_attributes"`
}

type MintAssetRequest struct {
	Creator             string            `json:"creator"`
	Collection          string            `json:"collection"`
	Schema              string            `json:"schema"`
	TemplateID          int32             `json:"template_id"`
	OwnerID             string            `json:"owner_id"`
	ImmutableAttributes map[string]string `json:"immutable_attributes"`
	MutableAttributes   map[string]string `json:"mutable_attributes"`
	BackingAssets       []string          `json:"backing_assets"`
}

// AssetService is the external templated-asset system. Template creation is
// answered asynchronously with an assets.template_created event on the bus;
// minting has no reply and supports one unit per call only.
type AssetService interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) error
	MintAsset(ctx context.Context, req MintAssetRequest) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
