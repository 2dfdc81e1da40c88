package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development. It
// enforces the same uniqueness rules as the SQL schema, except the
// (campaign, email) constraint, which is deliberately soft so duplicate
// tolerance can be exercised: use StrictEmailUniqueness to switch it on.
type MemoryStore struct {
	mu sync.Mutex

	campaigns map[string]Campaign
	leads     map[string]Lead
	emails    map[string]Email // keyed by provider_email_id

	// StrictEmailUniqueness makes InsertLead reject duplicate
	// (campaign, lower(email)) pairs with ErrDuplicate, like the SQL index.
	StrictEmailUniqueness bool

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns:             map[string]Campaign{},
		leads:                 map[string]Lead{},
		emails:                map[string]Email{},
		StrictEmailUniqueness: true,
		clock:                 time.Now,
	}
}

func (s *MemoryStore) CreateCampaign(ctx context.Context, c *Campaign) error {
	if c.Name == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.campaigns[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateCampaignCredential(ctx context.Context, id string, typ provider.Type, providerCampaignID, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.ProviderType = typ
	c.ProviderCampaignID = providerCampaignID
	c.APIKey = apiKey
	c.UpdatedAt = s.clock().UTC()
	s.campaigns[id] = c
	return nil
}

func (s *MemoryStore) FindLeadsByProviderID(ctx context.Context, campaignID, providerLeadID string) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Lead
	for _, l := range s.leads {
		if l.CampaignID == campaignID && l.ProviderLeadID == providerLeadID && providerLeadID != "" {
			out = append(out, l)
		}
	}
	sortLeads(out)
	return out, nil
}

func (s *MemoryStore) FindLeadsByEmail(ctx context.Context, campaignID, email string) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Lead
	for _, l := range s.leads {
		if l.CampaignID == campaignID && strings.EqualFold(l.Email, email) {
			out = append(out, l)
		}
	}
	sortLeads(out)
	return out, nil
}

func (s *MemoryStore) InsertLead(ctx context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StrictEmailUniqueness {
		for _, existing := range s.leads {
			if existing.CampaignID == l.CampaignID && strings.EqualFold(existing.Email, l.Email) {
				return ErrDuplicate
			}
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.leads[l.ID] = *l
	return nil
}

func (s *MemoryStore) UpdateLead(ctx context.Context, l *Lead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[l.ID]; !ok {
		return false, nil
	}
	l.UpdatedAt = s.clock().UTC()
	s.leads[l.ID] = *l
	return true, nil
}

func (s *MemoryStore) ListLeads(ctx context.Context, campaignID string, limit, offset int) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Lead
	for _, l := range s.leads {
		if l.CampaignID == campaignID {
			all = append(all, l)
		}
	}
	sortLeads(all)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) SetLeadStatus(ctx context.Context, leadID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	applyStatus(&l, status, s.clock().UTC())
	l.UpdatedAt = s.clock().UTC()
	s.leads[leadID] = l
	return nil
}

func (s *MemoryStore) FindDuplicateLeads(ctx context.Context) ([]DuplicateGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := map[string][]Lead{}
	for _, l := range s.leads {
		key := l.CampaignID + "|" + strings.ToLower(l.Email)
		groups[key] = append(groups[key], l)
	}
	var out []DuplicateGroup
	for _, rows := range groups {
		if len(rows) < 2 {
			continue
		}
		sortLeads(rows)
		g := DuplicateGroup{CampaignID: rows[0].CampaignID, Email: strings.ToLower(rows[0].Email)}
		for _, l := range rows {
			g.LeadIDs = append(g.LeadIDs, l.ID)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CampaignID == out[j].CampaignID {
			return out[i].Email < out[j].Email
		}
		return out[i].CampaignID < out[j].CampaignID
	})
	return out, nil
}

func (s *MemoryStore) InsertEmail(ctx context.Context, e *Email) (bool, error) {
	if e.ProviderEmailID == "" {
		return false, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[e.ProviderEmailID]; exists {
		return false, nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = s.clock().UTC()
	s.emails[e.ProviderEmailID] = *e
	return true, nil
}

// EmailsForLead returns stored thread emails for one lead. Test helper.
func (s *MemoryStore) EmailsForLead(leadID string) []Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Email
	for _, e := range s.emails {
		if e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out
}

// EmailCount reports the number of stored thread emails. Test helper.
func (s *MemoryStore) EmailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails)
}

// LeadCount reports the number of stored leads. Test helper.
func (s *MemoryStore) LeadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

func sortLeads(rows []Lead) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
