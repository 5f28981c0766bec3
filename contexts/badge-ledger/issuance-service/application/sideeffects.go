package application

import (
	"context"
	"encoding/json"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

// Side-effect event types exchanged with the external collaborators. Outbound
// rows are staged in the outbox inside the mutating transaction; the
// template_created type is the one inbound notification.
const (
	EventTypeCreditUsed              = "billing.credit_used"
	EventTypeTemplateCreateRequested = "assets.template_create_requested"
	EventTypeMintRequested           = "assets.mint_requested"
	EventTypeTemplateCreated         = "assets.template_created"

	SourceService = "badge-ledger/issuance-service"
)

// Attribute keys embedding the badge identity into an external template, read
// back by the template sync handler.
const (
	AttributeOrg    = "org"
	AttributeBadge  = "badge"
	AttributeIssuer = "issuer"
)

type CreditUsedPayload struct {
	OrgID     string `json:"org_id"`
	BytesUsed uint64 `json:"bytes_used"`
}

// TemplateCreatedPayload is the inbound notification raised by the asset
// system once a requested template exists.
type TemplateCreatedPayload struct {
	TemplateID          int32             `json:"template_id"`
	Creator             string            `json:"creator"`
	Collection          string            `json:"collection"`
	Schema              string            `json:"schema"`
	Transferable        bool              `json:"transferable"`
	Burnable            bool              `json:"burnable"`
	MaxSupply           uint32            `json:"max_supply"`
	ImmutableAttributes map[string]string `json:"immutable_attributes"`
}

// StageSideEffect wraps a side-effect payload into a pending outbox message.
func StageSideEffect(
	ctx context.Context,
	idGen ports.IDGenerator,
	now time.Time,
	eventType string,
	partitionKey string,
	payload any,
) (ports.OutboxMessage, error) {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    now.UTC(),
		SourceService: SourceService,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		Status:       ports.OutboxStatusPending,
		CreatedAt:    now.UTC(),
	}, nil
}
