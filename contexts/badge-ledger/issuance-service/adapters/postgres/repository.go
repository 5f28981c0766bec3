package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Models lists every table owned by this repository for migration wiring.
func Models() []any {
	return []any{
		&trustedIssuerModel{},
		&badgeModel{},
		&achievementModel{},
		&outboxModel{},
		&idempotencyModel{},
		&eventDedupModel{},
	}
}

func (r *Repository) AddTrustedIssuer(ctx context.Context, orgID string, issuerID string) (bool, error) {
	row := trustedIssuerModel{
		OrgID:     orgID,
		IssuerID:  issuerID,
		CreatedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "issuer_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListTrustedIssuers(ctx context.Context, orgID string) ([]entities.TrustedIssuer, error) {
	var rows []trustedIssuerModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("issuer_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.TrustedIssuer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) PurgeOrg(ctx context.Context, orgID string) (ports.OrgPurgeResult, error) {
	var result ports.OrgPurgeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issuers := tx.Where("org_id = ?", orgID).Delete(&trustedIssuerModel{})
		if issuers.Error != nil {
			return issuers.Error
		}
		badges := tx.Where("org_id = ?", orgID).Delete(&badgeModel{})
		if badges.Error != nil {
			return badges.Error
		}
		achievements := tx.Where("org_id = ?", orgID).Delete(&achievementModel{})
		if achievements.Error != nil {
			return achievements.Error
		}
		result = ports.OrgPurgeResult{
			Issuers:      int(issuers.RowsAffected),
			Badges:       int(badges.RowsAffected),
			Achievements: int(achievements.RowsAffected),
		}
		return nil
	})
	if err != nil {
		return ports.OrgPurgeResult{}, err
	}
	return result, nil
}

func (r *Repository) GetBadge(ctx context.Context, orgID string, issuerID string, name string) (entities.Badge, error) {
	var row badgeModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND issuer_id = ? AND name = ?", orgID, issuerID, name).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Badge{}, domainerrors.ErrBadgeNotFound
		}
		return entities.Badge{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBadges(ctx context.Context, orgID string) ([]entities.Badge, error) {
	var rows []badgeModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("badge_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Badge, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateBadgeWithOutbox(
	ctx context.Context,
	badge entities.Badge,
	messages []ports.OutboxMessage,
) (entities.Badge, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single-writer execution makes MAX+1 allocation safe; the composite
		// unique index still backstops against double registration.
		var next uint64
		if err := tx.Model(&badgeModel{}).
			Where("org_id = ?", badge.OrgID).
			Select("COALESCE(MAX(badge_id) + 1, 0)").
			Scan(&next).
			Error; err != nil {
			return err
		}
		badge.BadgeID = next

		row := badgeModelFromEntity(badge)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				if constraintName(err) == "badges_unique_issuer_name" {
					return domainerrors.ErrBadgeAlreadyExists
				}
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return insertOutbox(tx, messages)
	})
	if err != nil {
		return entities.Badge{}, err
	}
	return badge, nil
}

func (r *Repository) SetTemplateID(
	ctx context.Context,
	orgID string,
	issuerID string,
	name string,
	templateID int32,
) error {
	result := r.db.WithContext(ctx).
		Model(&badgeModel{}).
		Where("org_id = ? AND issuer_id = ? AND name = ?", orgID, issuerID, name).
		Update("template_id", templateID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBadgeNotFound
	}
	return nil
}

func (r *Repository) GetAchievement(
	ctx context.Context,
	orgID string,
	accountID string,
	badgeID uint64,
) (entities.Achievement, bool, error) {
	var row achievementModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND account_id = ? AND badge_id = ?", orgID, accountID, badgeID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Achievement{}, false, nil
		}
		return entities.Achievement{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListAchievementsByAccount(
	ctx context.Context,
	orgID string,
	accountID string,
) ([]entities.Achievement, error) {
	var rows []achievementModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND account_id = ?", orgID, accountID).
		Order("badge_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Achievement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) RecordAchievementWithOutbox(
	ctx context.Context,
	params ports.RecordAchievementParams,
) (ports.RecordAchievementRow, error) {
	var result ports.RecordAchievementRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var badge badgeModel
		err := tx.
			Where("org_id = ? AND issuer_id = ? AND name = ?", params.OrgID, params.IssuerID, params.BadgeName).
			First(&badge).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBadgeNotFound
			}
			return err
		}

		rarity := badge.RarityCount + params.Count
		if err := tx.Model(&badgeModel{}).
			Where("org_id = ? AND badge_id = ?", params.OrgID, badge.BadgeID).
			Update("rarity_count", rarity).
			Error; err != nil {
			return err
		}

		var row achievementModel
		err = tx.
			Where("org_id = ? AND account_id = ? AND badge_id = ?", params.OrgID, params.AccountID, badge.BadgeID).
			First(&row).
			Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var nextRow uint64
			if err := tx.Model(&achievementModel{}).
				Where("org_id = ?", params.OrgID).
				Select("COALESCE(MAX(row_id) + 1, 0)").
				Scan(&nextRow).
				Error; err != nil {
				return err
			}
			row = achievementModel{
				OrgID:     params.OrgID,
				RowID:     nextRow,
				AccountID: params.AccountID,
				BadgeID:   badge.BadgeID,
				Count:     params.Count,
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrRepositoryInvariantBroke
				}
				return err
			}
			result = ports.RecordAchievementRow{
				BadgeID:      badge.BadgeID,
				RowID:        row.RowID,
				NewlyCreated: true,
				Count:        row.Count,
				RarityCount:  rarity,
			}
		case err != nil:
			return err
		default:
			total := row.Count + params.Count
			if err := tx.Model(&achievementModel{}).
				Where("org_id = ? AND row_id = ?", params.OrgID, row.RowID).
				Update("count", total).
				Error; err != nil {
				return err
			}
			result = ports.RecordAchievementRow{
				BadgeID:      badge.BadgeID,
				RowID:        row.RowID,
				NewlyCreated: false,
				Count:        total,
				RarityCount:  rarity,
			}
		}

		return insertOutbox(tx, params.Messages)
	})
	if err != nil {
		return ports.RecordAchievementRow{}, err
	}
	return result, nil
}

func insertOutbox(tx *gorm.DB, messages []ports.OutboxMessage) error {
	for _, message := range messages {
		row := outboxModelFromPort(message)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", ports.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  ports.OutboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, retryCount int, terminal bool) error {
	updates := map[string]any{
		"retry_count": retryCount,
	}
	if terminal {
		updates["status"] = ports.OutboxStatusFailed
	}
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return row.toPort(), true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModelFromPort(record)
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyKeyConflict
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
