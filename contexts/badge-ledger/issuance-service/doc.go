// Package issuanceservice contains the OpenProfiles badge issuance and
// achievement ledger.
//
// Organizations register trusted issuers, issuers register badge types and
// record per-account achievement counts, and mutations optionally mirror into
// an external templated-asset system through a transactional outbox. The
// module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package issuanceservice
