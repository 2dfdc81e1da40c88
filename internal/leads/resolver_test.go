package leads

import (
	"context"
	"testing"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolveNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedLead(t *testing.T, store *MemoryStore, l Lead) Lead {
	t.Helper()
	if err := store.InsertLead(context.Background(), &l); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return l
}

func TestResolve_CreatesWhenNoMatch(t *testing.T) {
	store := NewMemoryStore()

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{
		ProviderLeadID: "P1",
		Email:          "  Ada@Example.COM ",
		FirstName:      "Ada",
	}, resolveNow)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.False(t, res.Backfilled)
	assert.False(t, res.Ambiguous)
	assert.Equal(t, "ada@example.com", res.Lead.Email, "email is lowered and trimmed on create")
	assert.Equal(t, StatusContacted, res.Lead.Status)
	assert.Equal(t, "P1", res.Lead.ProviderLeadID)
	assert.NotEmpty(t, res.Lead.ID)
}

func TestResolve_MatchesByProviderID(t *testing.T) {
	store := NewMemoryStore()
	existing := seedLead(t, store, Lead{
		CampaignID: "c1", Email: "old@x.com", ProviderLeadID: "P1",
		Status: StatusReplied, CreatedAt: resolveNow,
	})

	// Provider id wins even though the email differs (the prospect changed
	// addresses on the provider side).
	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{
		ProviderLeadID: "P1",
		Email:          "new@x.com",
	}, resolveNow)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, existing.ID, res.Lead.ID)
}

func TestResolve_EmailMatchBackfillsProviderID(t *testing.T) {
	store := NewMemoryStore()
	existing := seedLead(t, store, Lead{
		CampaignID: "c1", Email: "ada@x.com", Status: StatusContacted, CreatedAt: resolveNow,
	})

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{
		ProviderLeadID: "P9",
		Email:          "ADA@X.COM",
	}, resolveNow)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.True(t, res.Backfilled)
	assert.Equal(t, existing.ID, res.Lead.ID)
	assert.Equal(t, "P9", res.Lead.ProviderLeadID)
}

func TestResolve_NoBackfillWithoutProviderID(t *testing.T) {
	store := NewMemoryStore()
	seedLead(t, store, Lead{
		CampaignID: "c1", Email: "ada@x.com", ProviderLeadID: "P1", CreatedAt: resolveNow,
	})

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{Email: "ada@x.com"}, resolveNow)
	require.NoError(t, err)

	assert.False(t, res.Backfilled)
	assert.Equal(t, "P1", res.Lead.ProviderLeadID, "an observed provider id is never cleared")
}

func TestResolve_AmbiguousPicksEarliest(t *testing.T) {
	store := NewMemoryStore()
	store.StrictEmailUniqueness = false

	older := seedLead(t, store, Lead{
		ID: "lead-b", CampaignID: "c1", Email: "dup@x.com", CreatedAt: resolveNow.Add(-time.Hour),
	})
	seedLead(t, store, Lead{
		ID: "lead-a", CampaignID: "c1", Email: "dup@x.com", CreatedAt: resolveNow,
	})

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{Email: "dup@x.com"}, resolveNow)
	require.NoError(t, err)

	assert.True(t, res.Ambiguous)
	assert.Equal(t, older.ID, res.Lead.ID, "earliest-created row wins")
}

func TestResolve_AmbiguousTiebreakByID(t *testing.T) {
	store := NewMemoryStore()
	store.StrictEmailUniqueness = false

	seedLead(t, store, Lead{ID: "bbb", CampaignID: "c1", Email: "dup@x.com", CreatedAt: resolveNow})
	seedLead(t, store, Lead{ID: "aaa", CampaignID: "c1", Email: "dup@x.com", CreatedAt: resolveNow})

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{Email: "dup@x.com"}, resolveNow)
	require.NoError(t, err)

	assert.True(t, res.Ambiguous)
	assert.Equal(t, "aaa", res.Lead.ID)
}

func TestResolve_CampaignScoped(t *testing.T) {
	store := NewMemoryStore()
	seedLead(t, store, Lead{CampaignID: "other", Email: "ada@x.com", ProviderLeadID: "P1", CreatedAt: resolveNow})

	res, err := Resolve(context.Background(), store, "c1", provider.RemoteLead{
		ProviderLeadID: "P1", Email: "ada@x.com",
	}, resolveNow)
	require.NoError(t, err)

	assert.True(t, res.Created, "matches never cross campaign boundaries")
}

func TestResolve_InvalidArguments(t *testing.T) {
	store := NewMemoryStore()

	_, err := Resolve(context.Background(), store, "", provider.RemoteLead{Email: "a@x.com"}, resolveNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Resolve(context.Background(), store, "c1", provider.RemoteLead{}, resolveNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
