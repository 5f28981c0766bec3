package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"

	"github.com/google/uuid"
)

// badgeKey is the per-org secondary lookup key for badges.
type badgeKey struct {
	IssuerID string
	Name     string
}

type achievementKey struct {
	AccountID string
	BadgeID   uint64
}

type orgState struct {
	issuers      map[string]entities.TrustedIssuer
	badges       map[badgeKey]*entities.Badge
	nextBadgeID  uint64
	achievements map[achievementKey]*entities.Achievement
	nextRowID    uint64
}

// Store implements every repository port behind one mutex, giving tests the
// same all-or-nothing visibility a database transaction provides.
type Store struct {
	mu sync.RWMutex

	orgs        map[string]*orgState
	outbox      []ports.OutboxMessage
	idempotency map[string]ports.IdempotencyRecord
	dedup       map[string]string
}

func NewStore() *Store {
	return &Store{
		orgs:        make(map[string]*orgState),
		outbox:      make([]ports.OutboxMessage, 0),
		idempotency: make(map[string]ports.IdempotencyRecord),
		dedup:       make(map[string]string),
	}
}

func (s *Store) org(orgID string) *orgState {
	state, ok := s.orgs[orgID]
	if !ok {
		state = &orgState{
			issuers:      make(map[string]entities.TrustedIssuer),
			badges:       make(map[badgeKey]*entities.Badge),
			achievements: make(map[achievementKey]*entities.Achievement),
		}
		s.orgs[orgID] = state
	}
	return state
}

func (s *Store) AddTrustedIssuer(_ context.Context, orgID string, issuerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.org(orgID)
	if _, ok := state.issuers[issuerID]; ok {
		return false, nil
	}
	state.issuers[issuerID] = entities.TrustedIssuer{OrgID: orgID, IssuerID: issuerID}
	return true, nil
}

func (s *Store) ListTrustedIssuers(_ context.Context, orgID string) ([]entities.TrustedIssuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return nil, nil
	}
	items := make([]entities.TrustedIssuer, 0, len(state.issuers))
	for _, issuer := range state.issuers {
		items = append(items, issuer)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].IssuerID < items[j].IssuerID
	})
	return items, nil
}

func (s *Store) PurgeOrg(_ context.Context, orgID string) (ports.OrgPurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return ports.OrgPurgeResult{}, nil
	}
	result := ports.OrgPurgeResult{
		Issuers:      len(state.issuers),
		Badges:       len(state.badges),
		Achievements: len(state.achievements),
	}
	delete(s.orgs, orgID)
	return result, nil
}

func (s *Store) GetBadge(_ context.Context, orgID string, issuerID string, name string) (entities.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return entities.Badge{}, domainerrors.ErrBadgeNotFound
	}
	badge, ok := state.badges[badgeKey{IssuerID: issuerID, Name: name}]
	if !ok {
		return entities.Badge{}, domainerrors.ErrBadgeNotFound
	}
	return *badge, nil
}

func (s *Store) ListBadges(_ context.Context, orgID string) ([]entities.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return nil, nil
	}
	items := make([]entities.Badge, 0, len(state.badges))
	for _, badge := range state.badges {
		items = append(items, *badge)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].BadgeID < items[j].BadgeID
	})
	return items, nil
}

func (s *Store) CreateBadgeWithOutbox(
	_ context.Context,
	badge entities.Badge,
	messages []ports.OutboxMessage,
) (entities.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.org(badge.OrgID)
	key := badgeKey{IssuerID: badge.IssuerID, Name: badge.Name}
	if _, ok := state.badges[key]; ok {
		return entities.Badge{}, domainerrors.ErrBadgeAlreadyExists
	}

	badge.BadgeID = state.nextBadgeID
	state.nextBadgeID++
	stored := badge
	state.badges[key] = &stored
	s.outbox = append(s.outbox, messages...)
	return badge, nil
}

func (s *Store) SetTemplateID(
	_ context.Context,
	orgID string,
	issuerID string,
	name string,
	templateID int32,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return domainerrors.ErrBadgeNotFound
	}
	badge, ok := state.badges[badgeKey{IssuerID: issuerID, Name: name}]
	if !ok {
		return domainerrors.ErrBadgeNotFound
	}
	badge.TemplateID = templateID
	return nil
}

func (s *Store) GetAchievement(
	_ context.Context,
	orgID string,
	accountID string,
	badgeID uint64,
) (entities.Achievement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return entities.Achievement{}, false, nil
	}
	row, ok := state.achievements[achievementKey{AccountID: accountID, BadgeID: badgeID}]
	if !ok {
		return entities.Achievement{}, false, nil
	}
	return *row, true, nil
}

func (s *Store) ListAchievementsByAccount(
	_ context.Context,
	orgID string,
	accountID string,
) ([]entities.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.orgs[orgID]
	if !ok {
		return nil, nil
	}
	items := make([]entities.Achievement, 0)
	for key, row := range state.achievements {
		if key.AccountID == accountID {
			items = append(items, *row)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].BadgeID < items[j].BadgeID
	})
	return items, nil
}

func (s *Store) RecordAchievementWithOutbox(
	_ context.Context,
	params ports.RecordAchievementParams,
) (ports.RecordAchievementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.orgs[params.OrgID]
	if !ok {
		return ports.RecordAchievementRow{}, domainerrors.ErrBadgeNotFound
	}
	badge, ok := state.badges[badgeKey{IssuerID: params.IssuerID, Name: params.BadgeName}]
	if !ok {
		return ports.RecordAchievementRow{}, domainerrors.ErrBadgeNotFound
	}

	badge.RarityCount += params.Count

	key := achievementKey{AccountID: params.AccountID, BadgeID: badge.BadgeID}
	row, ok := state.achievements[key]
	newlyCreated := !ok
	if newlyCreated {
		row = &entities.Achievement{
			OrgID:     params.OrgID,
			RowID:     state.nextRowID,
			AccountID: params.AccountID,
			BadgeID:   badge.BadgeID,
			Count:     params.Count,
		}
		state.nextRowID++
		state.achievements[key] = row
	} else {
		row.Count += params.Count
	}

	s.outbox = append(s.outbox, params.Messages...)
	return ports.RecordAchievementRow{
		BadgeID:      badge.BadgeID,
		RowID:        row.RowID,
		NewlyCreated: newlyCreated,
		Count:        row.Count,
		RarityCount:  badge.RarityCount,
	}, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, message := range s.outbox {
		if message.Status != ports.OutboxStatusPending {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			s.outbox[i].Status = ports.OutboxStatusSent
			return nil
		}
	}
	return domainerrors.ErrRepositoryInvariantBroke
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, retryCount int, terminal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			s.outbox[i].RetryCount = retryCount
			if terminal {
				s.outbox[i].Status = ports.OutboxStatusFailed
			}
			return nil
		}
	}
	return domainerrors.ErrRepositoryInvariantBroke
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dedup[eventID]
	if ok {
		if existing != payloadHash {
			return false, domainerrors.ErrIdempotencyKeyConflict
		}
		return true, nil
	}
	s.dedup[eventID] = payloadHash
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// OrgSnapshot is a sorted copy of one org's three tables, used by tests to
// assert that failed operations leave no partial writes.
type OrgSnapshot struct {
	Issuers      []entities.TrustedIssuer
	Badges       []entities.Badge
	Achievements []entities.Achievement
}

func (s *Store) SnapshotOrg(orgID string) OrgSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := OrgSnapshot{
		Issuers:      make([]entities.TrustedIssuer, 0),
		Badges:       make([]entities.Badge, 0),
		Achievements: make([]entities.Achievement, 0),
	}
	state, ok := s.orgs[orgID]
	if !ok {
		return snapshot
	}
	for _, issuer := range state.issuers {
		snapshot.Issuers = append(snapshot.Issuers, issuer)
	}
	for _, badge := range state.badges {
		snapshot.Badges = append(snapshot.Badges, *badge)
	}
	for _, row := range state.achievements {
		snapshot.Achievements = append(snapshot.Achievements, *row)
	}
	sort.Slice(snapshot.Issuers, func(i, j int) bool {
		return snapshot.Issuers[i].IssuerID < snapshot.Issuers[j].IssuerID
	})
	sort.Slice(snapshot.Badges, func(i, j int) bool {
		return snapshot.Badges[i].BadgeID < snapshot.Badges[j].BadgeID
	})
	sort.Slice(snapshot.Achievements, func(i, j int) bool {
		return snapshot.Achievements[i].RowID < snapshot.Achievements[j].RowID
	})
	return snapshot
}

// PendingOutboxByType counts still-pending side effects, split by event type.
func (s *Store) PendingOutboxByType() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, message := range s.outbox {
		if message.Status == ports.OutboxStatusPending {
			counts[message.EventType]++
		}
	}
	return counts
}

// SeedTrustedIssuer is a test helper bypassing org-authority checks.
func (s *Store) SeedTrustedIssuer(orgID string, issuerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.org(strings.TrimSpace(orgID))
	state.issuers[strings.TrimSpace(issuerID)] = entities.TrustedIssuer{
		OrgID:    strings.TrimSpace(orgID),
		IssuerID: strings.TrimSpace(issuerID),
	}
}
