package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/pagination"
)

// In-memory repositories backing the service tests.

type mockCampaignRepo struct {
	campaigns map[string]*campaign.Campaign
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: make(map[string]*campaign.Campaign)}
}

func (m *mockCampaignRepo) Create(_ context.Context, c *campaign.Campaign) error {
	m.campaigns[c.ID.String()] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(_ context.Context, id shared.ID) (*campaign.Campaign, error) {
	c, ok := m.campaigns[id.String()]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "campaign not found", shared.ErrNotFound)
	}
	return c, nil
}

func (m *mockCampaignRepo) List(_ context.Context, filter campaign.Filter, p pagination.Pagination) (*pagination.Result[*campaign.Campaign], error) {
	var out []*campaign.Campaign
	for _, c := range m.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	result := pagination.NewResult(out, int64(len(out)), p)
	return &result, nil
}

func (m *mockCampaignRepo) ListScheduled(_ context.Context, limit int) ([]*campaign.Campaign, error) {
	var out []*campaign.Campaign
	for _, c := range m.campaigns {
		if c.Status == campaign.StatusDraft && c.AutoStart && c.ScheduledAt != nil {
			out = append(out, c)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) Update(_ context.Context, c *campaign.Campaign) error {
	if _, ok := m.campaigns[c.ID.String()]; !ok {
		return shared.NewDomainError("NOT_FOUND", "campaign not found", shared.ErrNotFound)
	}
	m.campaigns[c.ID.String()] = c
	return nil
}

func (m *mockCampaignRepo) Delete(_ context.Context, id shared.ID) error {
	if _, ok := m.campaigns[id.String()]; !ok {
		return shared.NewDomainError("NOT_FOUND", "campaign not found", shared.ErrNotFound)
	}
	delete(m.campaigns, id.String())
	return nil
}

func (m *mockCampaignRepo) Stats(_ context.Context, id shared.ID) (*campaign.Stats, error) {
	return &campaign.Stats{CampaignID: id}, nil
}

type mockTargetRepo struct {
	targets map[string]*target.Target
}

func newMockTargetRepo() *mockTargetRepo {
	return &mockTargetRepo{targets: make(map[string]*target.Target)}
}

func (m *mockTargetRepo) Create(_ context.Context, t *target.Target) error {
	m.targets[t.ID.String()] = t
	return nil
}

func (m *mockTargetRepo) CreateBatch(ctx context.Context, ts []*target.Target) error {
	for _, t := range ts {
		if err := m.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTargetRepo) GetByID(_ context.Context, id shared.ID) (*target.Target, error) {
	t, ok := m.targets[id.String()]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "target not found", shared.ErrNotFound)
	}
	return t, nil
}

func (m *mockTargetRepo) GetByEmail(_ context.Context, campaignID shared.ID, email string) (*target.Target, error) {
	for _, t := range m.targets {
		if t.CampaignID.Equals(campaignID) && t.Email == strings.ToLower(email) {
			return t, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "target not found", shared.ErrNotFound)
}

func (m *mockTargetRepo) List(_ context.Context, filter target.Filter, p pagination.Pagination) (*pagination.Result[*target.Target], error) {
	var out []*target.Target
	for _, t := range m.targets {
		if !t.CampaignID.Equals(filter.CampaignID) {
			continue
		}
		out = append(out, t)
	}
	result := pagination.NewResult(out, int64(len(out)), p)
	return &result, nil
}

func (m *mockTargetRepo) ListByCampaign(_ context.Context, campaignID shared.ID) ([]*target.Target, error) {
	var out []*target.Target
	for _, t := range m.targets {
		if t.CampaignID.Equals(campaignID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *mockTargetRepo) CountByCampaign(_ context.Context, campaignID shared.ID) (int, error) {
	count := 0
	for _, t := range m.targets {
		if t.CampaignID.Equals(campaignID) {
			count++
		}
	}
	return count, nil
}

func (m *mockTargetRepo) Update(_ context.Context, t *target.Target) error {
	if _, ok := m.targets[t.ID.String()]; !ok {
		return shared.NewDomainError("NOT_FOUND", "target not found", shared.ErrNotFound)
	}
	m.targets[t.ID.String()] = t
	return nil
}

func (m *mockTargetRepo) Delete(_ context.Context, id shared.ID) error {
	delete(m.targets, id.String())
	return nil
}

type mockEventRepo struct {
	events []*tracking.Event
}

func newMockEventRepo() *mockEventRepo { return &mockEventRepo{} }

func (m *mockEventRepo) Create(_ context.Context, e *tracking.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id shared.ID) (*tracking.Event, error) {
	for _, e := range m.events {
		if e.ID.Equals(id) {
			return e, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "event not found", shared.ErrNotFound)
}

func (m *mockEventRepo) GetByToken(_ context.Context, token string) (*tracking.Event, error) {
	for _, e := range m.events {
		if e.TrackingToken == token {
			return e, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "event not found", shared.ErrNotFound)
}

func (m *mockEventRepo) List(_ context.Context, filter tracking.Filter, p pagination.Pagination) (*pagination.Result[*tracking.Event], error) {
	var out []*tracking.Event
	for _, e := range m.events {
		if !e.CampaignID.Equals(filter.CampaignID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > p.Limit() {
		out = out[:p.Limit()]
	}
	result := pagination.NewResult(out, int64(len(out)), p)
	return &result, nil
}

func (m *mockEventRepo) ListByTarget(_ context.Context, campaignID, targetID shared.ID) ([]*tracking.Event, error) {
	var out []*tracking.Event
	for _, e := range m.events {
		if e.CampaignID.Equals(campaignID) && e.TargetID != nil && e.TargetID.Equals(targetID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *mockEventRepo) Exists(_ context.Context, campaignID shared.ID, targetID *shared.ID, eventType tracking.EventType) (bool, error) {
	for _, e := range m.events {
		if !e.CampaignID.Equals(campaignID) || e.Type != eventType {
			continue
		}
		if targetID == nil && e.TargetID == nil {
			return true, nil
		}
		if targetID != nil && e.TargetID != nil && e.TargetID.Equals(*targetID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEventRepo) CountDistinctTargets(_ context.Context, campaignID shared.ID, eventType tracking.EventType) (int, error) {
	seen := make(map[string]bool)
	for _, e := range m.events {
		if e.CampaignID.Equals(campaignID) && e.Type == eventType && e.TargetID != nil {
			seen[e.TargetID.String()] = true
		}
	}
	return len(seen), nil
}

func (m *mockEventRepo) FirstByType(_ context.Context, campaignID, targetID shared.ID, eventType tracking.EventType) (*tracking.Event, error) {
	var first *tracking.Event
	for _, e := range m.events {
		if !e.CampaignID.Equals(campaignID) || e.Type != eventType {
			continue
		}
		if e.TargetID == nil || !e.TargetID.Equals(targetID) {
			continue
		}
		if first == nil || e.Timestamp.Before(first.Timestamp) {
			first = e
		}
	}
	if first == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "event not found", shared.ErrNotFound)
	}
	return first, nil
}

func (m *mockEventRepo) HourlyActivity(_ context.Context, campaignID shared.ID, since time.Time) ([]tracking.HourlyCount, error) {
	buckets := make(map[time.Time]int)
	for _, e := range m.events {
		if !e.CampaignID.Equals(campaignID) || e.Timestamp.Before(since) {
			continue
		}
		buckets[e.Timestamp.Truncate(time.Hour)]++
	}
	var out []tracking.HourlyCount
	for hour, count := range buckets {
		out = append(out, tracking.HourlyCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out, nil
}

func (m *mockEventRepo) CountByDeviceType(_ context.Context, campaignID shared.ID) (map[string]int, error) {
	out := make(map[string]int)
	for _, e := range m.events {
		if e.CampaignID.Equals(campaignID) {
			out[e.Device.Type]++
		}
	}
	return out, nil
}

func (m *mockEventRepo) MarkProcessed(_ context.Context, id shared.ID) error {
	for _, e := range m.events {
		if e.ID.Equals(id) {
			e.Processed = true
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "event not found", shared.ErrNotFound)
}

type mockCredentialRepo struct {
	credentials []*credential.Credential
}

func newMockCredentialRepo() *mockCredentialRepo { return &mockCredentialRepo{} }

func (m *mockCredentialRepo) Create(_ context.Context, c *credential.Credential) error {
	m.credentials = append(m.credentials, c)
	return nil
}

func (m *mockCredentialRepo) GetByID(_ context.Context, id shared.ID) (*credential.Credential, error) {
	for _, c := range m.credentials {
		if c.ID.Equals(id) {
			return c, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "credential not found", shared.ErrNotFound)
}

func (m *mockCredentialRepo) List(_ context.Context, filter credential.Filter, p pagination.Pagination) (*pagination.Result[*credential.Credential], error) {
	var out []*credential.Credential
	for _, c := range m.credentials {
		if c.CampaignID.Equals(filter.CampaignID) {
			out = append(out, c)
		}
	}
	result := pagination.NewResult(out, int64(len(out)), p)
	return &result, nil
}

func (m *mockCredentialRepo) ListByCampaign(_ context.Context, campaignID shared.ID) ([]*credential.Credential, error) {
	var out []*credential.Credential
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCredentialRepo) ExistsForTarget(_ context.Context, campaignID, targetID shared.ID) (bool, error) {
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) && c.TargetID.Equals(targetID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCredentialRepo) CountDistinctTargets(_ context.Context, campaignID shared.ID) (int, error) {
	seen := make(map[string]bool)
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			seen[c.TargetID.String()] = true
		}
	}
	return len(seen), nil
}

func (m *mockCredentialRepo) CountByCampaign(_ context.Context, campaignID shared.ID) (int, error) {
	count := 0
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			count++
		}
	}
	return count, nil
}

func (m *mockCredentialRepo) StrengthBreakdown(_ context.Context, campaignID shared.ID) (credential.StrengthBreakdown, error) {
	out := make(credential.StrengthBreakdown)
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			out[c.PasswordStrength]++
		}
	}
	return out, nil
}

func (m *mockCredentialRepo) AverageRiskScore(_ context.Context, campaignID shared.ID) (float64, error) {
	sum, count := 0, 0
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			sum += c.RiskScore
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

func (m *mockCredentialRepo) CountFlagged(_ context.Context, campaignID shared.ID) (int, error) {
	count := 0
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) && c.FlaggedForReview {
			count++
		}
	}
	return count, nil
}

func (m *mockCredentialRepo) CountCommon(_ context.Context, campaignID shared.ID) (int, error) {
	count := 0
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) && c.IsCommonPassword {
			count++
		}
	}
	return count, nil
}

func (m *mockCredentialRepo) CountHighRisk(_ context.Context, campaignID shared.ID, threshold int) (int, error) {
	count := 0
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) && c.RiskScore > threshold {
			count++
		}
	}
	return count, nil
}

func (m *mockCredentialRepo) TopPasswords(_ context.Context, campaignID shared.ID, limit int) ([]credential.PasswordCount, error) {
	freq := make(map[string]int)
	for _, c := range m.credentials {
		if c.CampaignID.Equals(campaignID) {
			freq[strings.ToLower(c.Password)]++
		}
	}

	counts := make([]credential.PasswordCount, 0, len(freq))
	for pwd, n := range freq {
		counts = append(counts, credential.PasswordCount{Password: pwd, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Password < counts[j].Password
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

func (m *mockCredentialRepo) Update(_ context.Context, c *credential.Credential) error {
	for i, existing := range m.credentials {
		if existing.ID.Equals(c.ID) {
			m.credentials[i] = c
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "credential not found", shared.ErrNotFound)
}
