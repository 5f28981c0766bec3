package postgresadapter

import (
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type trustedIssuerModel struct {
	OrgID     string    `gorm:"column:org_id;primaryKey"`
	IssuerID  string    `gorm:"column:issuer_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (trustedIssuerModel) TableName() string { return "issuance_trusted_issuers" }

func (m trustedIssuerModel) toEntity() entities.TrustedIssuer {
	return entities.TrustedIssuer{
		OrgID:    m.OrgID,
		IssuerID: m.IssuerID,
	}
}

type badgeModel struct {
	OrgID          string    `gorm:"column:org_id;primaryKey;uniqueIndex:badges_unique_issuer_name,priority:1"`
	BadgeID        uint64    `gorm:"column:badge_id;primaryKey"`
	IssuerID       string    `gorm:"column:issuer_id;uniqueIndex:badges_unique_issuer_name,priority:2"`
	Name           string    `gorm:"column:name;uniqueIndex:badges_unique_issuer_name,priority:3"`
	MirrorToAssets bool      `gorm:"column:mirror_to_assets"`
	TemplateID     int32     `gorm:"column:template_id"`
	URI            string    `gorm:"column:uri"`
	Details        string    `gorm:"column:details"`
	RarityCount    uint64    `gorm:"column:rarity_count"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (badgeModel) TableName() string { return "issuance_badges" }

func (m badgeModel) toEntity() entities.Badge {
	return entities.Badge{
		OrgID:          m.OrgID,
		BadgeID:        m.BadgeID,
		IssuerID:       m.IssuerID,
		Name:           m.Name,
		MirrorToAssets: m.MirrorToAssets,
		TemplateID:     m.TemplateID,
		URI:            m.URI,
		Details:        m.Details,
		RarityCount:    m.RarityCount,
	}
}

func badgeModelFromEntity(badge entities.Badge) badgeModel {
	now := time.Now().UTC()
	return badgeModel{
		OrgID:          badge.OrgID,
		BadgeID:        badge.BadgeID,
		IssuerID:       badge.IssuerID,
		Name:           badge.Name,
		MirrorToAssets: badge.MirrorToAssets,
		TemplateID:     badge.TemplateID,
		URI:            badge.URI,
		Details:        badge.Details,
		RarityCount:    badge.RarityCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type achievementModel struct {
	OrgID     string    `gorm:"column:org_id;primaryKey;uniqueIndex:achievements_unique_account_badge,priority:1"`
	RowID     uint64    `gorm:"column:row_id;primaryKey"`
	AccountID string    `gorm:"column:account_id;uniqueIndex:achievements_unique_account_badge,priority:2"`
	BadgeID   uint64    `gorm:"column:badge_id;uniqueIndex:achievements_unique_account_badge,priority:3"`
	Count     uint64    `gorm:"column:count"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (achievementModel) TableName() string { return "issuance_achievements" }

func (m achievementModel) toEntity() entities.Achievement {
	return entities.Achievement{
		OrgID:     m.OrgID,
		RowID:     m.RowID,
		AccountID: m.AccountID,
		BadgeID:   m.BadgeID,
		Count:     m.Count,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type;index"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	RetryCount   int        `gorm:"column:retry_count"`
	CreatedAt    time.Time  `gorm:"column:created_at;index"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "issuance_outbox" }

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      m.Payload,
		Status:       m.Status,
		RetryCount:   m.RetryCount,
		CreatedAt:    m.CreatedAt,
	}
}

func outboxModelFromPort(message ports.OutboxMessage) outboxModel {
	return outboxModel{
		OutboxID:     message.OutboxID,
		EventType:    message.EventType,
		PartitionKey: message.PartitionKey,
		Payload:      message.Payload,
		Status:       message.Status,
		RetryCount:   message.RetryCount,
		CreatedAt:    message.CreatedAt,
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload;type:jsonb"`
	ExpiresAt       time.Time `gorm:"column:expires_at;index"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (idempotencyModel) TableName() string { return "issuance_idempotency_records" }

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:             m.Key,
		RequestHash:     m.RequestHash,
		ResponsePayload: m.ResponsePayload,
		ExpiresAt:       m.ExpiresAt,
	}
}

func idempotencyModelFromPort(record ports.IdempotencyRecord) idempotencyModel {
	return idempotencyModel{
		Key:             record.Key,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
		CreatedAt:       time.Now().UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string { return "issuance_event_dedup" }
