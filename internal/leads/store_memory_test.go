package leads

import (
	"context"
	"testing"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertLead_DuplicateEmailRejected(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertLead(ctx, &Lead{CampaignID: "c1", Email: "ada@x.com"}))

	err := store.InsertLead(ctx, &Lead{CampaignID: "c1", Email: "ADA@X.COM"})
	assert.ErrorIs(t, err, ErrDuplicate, "uniqueness is case-insensitive")

	// A different campaign is a different namespace.
	assert.NoError(t, store.InsertLead(ctx, &Lead{CampaignID: "c2", Email: "ada@x.com"}))
}

func TestMemoryStore_InsertEmail_DeduplicatesByProviderID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	inserted, err := store.InsertEmail(ctx, &Email{LeadID: "l1", ProviderEmailID: "m1"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertEmail(ctx, &Email{LeadID: "l1", ProviderEmailID: "m1"})
	require.NoError(t, err)
	assert.False(t, inserted, "replay of the same provider email is a silent skip")
	assert.Equal(t, 1, store.EmailCount())

	_, err = store.InsertEmail(ctx, &Email{LeadID: "l1"})
	assert.ErrorIs(t, err, ErrInvalidArgument, "provider email id is mandatory")
}

func TestMemoryStore_SetLeadStatus_OverrideAndStamps(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	lead := Lead{CampaignID: "c1", Email: "ada@x.com", Status: StatusContacted}
	require.NoError(t, store.InsertLead(ctx, &lead))

	require.NoError(t, store.SetLeadStatus(ctx, lead.ID, StatusClosedWon))
	rows, err := store.ListLeads(ctx, "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusClosedWon, rows[0].Status)
	assert.NotNil(t, rows[0].ClosedAt)
	assert.NotNil(t, rows[0].RespondedAt)

	// The override is allowed to move backward; that is its purpose.
	require.NoError(t, store.SetLeadStatus(ctx, lead.ID, StatusReplied))
	rows, err = store.ListLeads(ctx, "c1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusReplied, rows[0].Status)

	assert.ErrorIs(t, store.SetLeadStatus(ctx, lead.ID, Status("bogus")), ErrInvalidArgument)
	assert.ErrorIs(t, store.SetLeadStatus(ctx, "missing", StatusReplied), ErrNotFound)
}

func TestMemoryStore_FindDuplicateLeads(t *testing.T) {
	store := NewMemoryStore()
	store.StrictEmailUniqueness = false
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertLead(ctx, &Lead{ID: "a", CampaignID: "c1", Email: "dup@x.com", CreatedAt: now}))
	require.NoError(t, store.InsertLead(ctx, &Lead{ID: "b", CampaignID: "c1", Email: "DUP@x.com", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.InsertLead(ctx, &Lead{ID: "c", CampaignID: "c1", Email: "solo@x.com", CreatedAt: now}))
	require.NoError(t, store.InsertLead(ctx, &Lead{ID: "d", CampaignID: "c2", Email: "dup@x.com", CreatedAt: now}))

	groups, err := store.FindDuplicateLeads(ctx)
	require.NoError(t, err)

	require.Len(t, groups, 1, "only true (campaign, email) collisions are reported")
	assert.Equal(t, "c1", groups[0].CampaignID)
	assert.Equal(t, "dup@x.com", groups[0].Email)
	assert.Equal(t, []string{"a", "b"}, groups[0].LeadIDs)
}

func TestMemoryStore_UpdateCampaignCredential(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := Campaign{Name: "Q2 Outreach"}
	require.NoError(t, store.CreateCampaign(ctx, &c))
	assert.False(t, c.HasCredential())

	require.NoError(t, store.UpdateCampaignCredential(ctx, c.ID, provider.TypeInstantly, "remote-1", "sk-123"))
	got, err := store.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.HasCredential())

	assert.ErrorIs(t, store.UpdateCampaignCredential(ctx, "missing", provider.TypeInstantly, "r", "k"), ErrNotFound)
}
