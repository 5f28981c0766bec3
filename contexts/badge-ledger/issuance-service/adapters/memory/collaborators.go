package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/ports"

	"github.com/google/uuid"
)

// ErrVetoed is what the in-memory preference service returns for a denied
// (org, account) pair.
var ErrVetoed = errors.New("account preferences deny achievement recording")

// PreferenceRecorder implements ports.PreferenceService. Pairs denied via
// Deny veto the check; every call is recorded for assertions.
type PreferenceRecorder struct {
	mu     sync.Mutex
	denied map[[2]string]bool
	Calls  [][2]string
}

func NewPreferenceRecorder() *PreferenceRecorder {
	return &PreferenceRecorder{denied: make(map[[2]string]bool)}
}

func (p *PreferenceRecorder) Deny(orgID string, accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied[[2]string{orgID, accountID}] = true
}

func (p *PreferenceRecorder) CheckAllow(_ context.Context, orgID string, accountID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, [2]string{orgID, accountID})
	if p.denied[[2]string{orgID, accountID}] {
		return ErrVetoed
	}
	return nil
}

type CreditCall struct {
	OrgID     string
	BytesUsed uint64
}

// BillingRecorder implements ports.BillingService and records deductions.
type BillingRecorder struct {
	mu       sync.Mutex
	Calls    []CreditCall
	FailNext bool
}

func NewBillingRecorder() *BillingRecorder {
	return &BillingRecorder{}
}

func (b *BillingRecorder) UseCredit(_ context.Context, orgID string, bytesUsed uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNext {
		b.FailNext = false
		return errors.New("billing service unavailable")
	}
	b.Calls = append(b.Calls, CreditCall{OrgID: orgID, BytesUsed: bytesUsed})
	return nil
}

// AssetServiceSim implements ports.AssetService. Template creation assigns a
// monotonically increasing template id and, when a publisher is attached,
// raises the assets.template_created notification the way the real system
// does, which closes the reconcile loop in end-to-end tests.
type AssetServiceSim struct {
	mu             sync.Mutex
	Publisher      ports.EventPublisher
	NotifyTopic    string
	nextTemplateID int32
	Templates      []ports.CreateTemplateRequest
	Mints          []ports.MintAssetRequest
}

func NewAssetServiceSim(publisher ports.EventPublisher, notifyTopic string) *AssetServiceSim {
	return &AssetServiceSim{
		Publisher:   publisher,
		NotifyTopic: notifyTopic,
	}
}

func (a *AssetServiceSim) CreateTemplate(ctx context.Context, req ports.CreateTemplateRequest) error {
	a.mu.Lock()
	a.nextTemplateID++
	templateID := a.nextTemplateID
	a.Templates = append(a.Templates, req)
	publisher := a.Publisher
	topic := a.NotifyTopic
	a.mu.Unlock()

	if publisher == nil {
		return nil
	}

	data, err := json.Marshal(map[string]any{
		"template_id":          templateID,
		"creator":              req.Creator,
		"collection":           req.Collection,
		"schema":               req.Schema,
		"transferable":         req.Transferable,
		"burnable":             req.Burnable,
		"max_supply":           req.MaxSupply,
		"immutable_attributes": req.ImmutableAttributes,
	})
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, topic, ports.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     topic,
		OccurredAt:    time.Now().UTC(),
		SourceService: "atomicassets-sim",
		SchemaVersion: 1,
		PartitionKey:  req.Collection,
		Data:          data,
	})
}

func (a *AssetServiceSim) MintAsset(_ context.Context, req ports.MintAssetRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Mints = append(a.Mints, req)
	return nil
}

// MintCount reports how many unit mint calls were received.
func (a *AssetServiceSim) MintCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Mints)
}
