package leads

import (
	"errors"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicate is returned when an insert loses to a uniqueness
	// constraint. Callers treat it as success-with-skip, not failure.
	ErrDuplicate = errors.New("duplicate")
)

// Campaign links a local campaign to a provider-side campaign and holds the
// per-campaign API credential. Credentials are per campaign, never global:
// agency accounts span multiple provider tenants.
type Campaign struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`

	ProviderType       provider.Type `json:"provider_type,omitempty"`
	ProviderCampaignID string        `json:"provider_campaign_id,omitempty"`
	// APIKey is opaque to the engine; it is only handed to the adapter.
	APIKey string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCredential reports whether the campaign can be synced.
func (c Campaign) HasCredential() bool {
	return c.APIKey != "" && c.ProviderCampaignID != "" && c.ProviderType.Valid()
}

// Lead is the canonical prospect record, independent of provider schema.
//
// Identity invariants:
// - Email is the case-insensitive identity anchor within a campaign.
// - ProviderLeadID is best-effort and authoritative once observed; providers
//   may omit or reassign it across re-imports.
type Lead struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`

	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Company        string `json:"company,omitempty"`
	ProviderLeadID string `json:"provider_lead_id,omitempty"`

	Status          Status `json:"status"`
	HasReplied      bool   `json:"has_replied"`
	IsPositiveReply bool   `json:"is_positive_reply"`
	EmailReplyCount int    `json:"email_reply_count"`

	// Metadata is the raw provider payload captured at the last sync.
	Metadata map[string]any `json:"metadata,omitempty"`

	RespondedAt *time.Time `json:"responded_at,omitempty"`
	MeetingAt   *time.Time `json:"meeting_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Email is one message on a lead's thread. Immutable once written;
// ProviderEmailID is the global uniqueness anchor.
type Email struct {
	ID         string `json:"id"`
	LeadID     string `json:"lead_id"`
	CampaignID string `json:"campaign_id"`

	ProviderEmailID string             `json:"provider_email_id"`
	ThreadID        string             `json:"thread_id,omitempty"`
	Direction       provider.Direction `json:"direction"`
	FromAddr        string             `json:"from_addr"`
	ToAddr          string             `json:"to_addr"`
	Subject         string             `json:"subject,omitempty"`
	BodyText        string             `json:"body_text,omitempty"`
	BodyHTML        string             `json:"body_html,omitempty"`
	SentAt          time.Time          `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
}

// DuplicateGroup is one (campaign, email) pair that violates the expected
// uniqueness, with every offending lead id. Duplicate detection is a
// first-class operation; the engine tolerates and reports, never repairs.
type DuplicateGroup struct {
	CampaignID string   `json:"campaign_id"`
	Email      string   `json:"email"`
	LeadIDs    []string `json:"lead_ids"`
}
