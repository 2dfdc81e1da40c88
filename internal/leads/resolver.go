package leads

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"

	"github.com/google/uuid"
)

// lookupStore is the minimal read surface the resolver needs.
type lookupStore interface {
	FindLeadsByProviderID(ctx context.Context, campaignID, providerLeadID string) ([]Lead, error)
	FindLeadsByEmail(ctx context.Context, campaignID, email string) ([]Lead, error)
}

// Resolution is the identity decision for one incoming provider lead.
type Resolution struct {
	Lead *Lead

	// Created means no local match existed; the caller should insert.
	Created bool
	// Backfilled means an email-matched row was stamped with a new provider
	// lead id. Provider ids are authoritative once observed.
	Backfilled bool
	// Ambiguous means more than one local row matched; the earliest-created
	// row was picked deterministically. Reported in run counters, never an
	// error.
	Ambiguous bool
}

// Resolve maps one incoming provider lead to a local row, or decides to
// create one.
//
// Match order, first hit wins:
//  1. (campaign, provider_lead_id)
//  2. (campaign, lower(email)), backfilling the provider id if it differs
//  3. create
func Resolve(ctx context.Context, store lookupStore, campaignID string, remote provider.RemoteLead, now time.Time) (Resolution, error) {
	if campaignID == "" || remote.Email == "" {
		return Resolution{}, ErrInvalidArgument
	}

	if remote.ProviderLeadID != "" {
		rows, err := store.FindLeadsByProviderID(ctx, campaignID, remote.ProviderLeadID)
		if err != nil {
			return Resolution{}, err
		}
		if len(rows) > 0 {
			lead, ambiguous := pickDeterministic(rows)
			return Resolution{Lead: lead, Ambiguous: ambiguous}, nil
		}
	}

	rows, err := store.FindLeadsByEmail(ctx, campaignID, remote.Email)
	if err != nil {
		return Resolution{}, err
	}
	if len(rows) > 0 {
		lead, ambiguous := pickDeterministic(rows)
		backfilled := false
		if remote.ProviderLeadID != "" && lead.ProviderLeadID != remote.ProviderLeadID {
			lead.ProviderLeadID = remote.ProviderLeadID
			backfilled = true
		}
		return Resolution{Lead: lead, Backfilled: backfilled, Ambiguous: ambiguous}, nil
	}

	lead := &Lead{
		ID:             uuid.NewString(),
		CampaignID:     campaignID,
		Email:          strings.ToLower(strings.TrimSpace(remote.Email)),
		FirstName:      remote.FirstName,
		LastName:       remote.LastName,
		Company:        remote.Company,
		ProviderLeadID: remote.ProviderLeadID,
		Status:         StatusContacted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return Resolution{Lead: lead, Created: true}, nil
}

// pickDeterministic picks the earliest-created row (id as tiebreak) so that
// duplicate rows always resolve the same way across runs.
func pickDeterministic(rows []Lead) (*Lead, bool) {
	if len(rows) == 1 {
		return &rows[0], false
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return &rows[0], true
}
