package provider

import (
	"context"
	"time"
)

// Provider is the provider-agnostic capability set used by the sync engine.
//
// Rules:
// - No provider HTTP calls outside this package.
// - Adapters are constructed per campaign credential; no process-global state.
// - Raw-value mapping to the canonical Interest enum is adapter-owned; the
//   rest of the engine never sees provider-specific codes.
type Provider interface {
	Name() string

	// ValidateKey probes the credential with a minimal listing call (limit 1).
	ValidateKey(ctx context.Context) error

	ListCampaigns(ctx context.Context) ([]RemoteCampaign, error)

	// ListLeadsPage fetches one page of leads. raw is the item count the
	// provider served before normalization dropped anything (malformed
	// entries, missing email). End-of-data is judged on raw: a raw count
	// below limit is the authoritative termination signal, a short
	// normalized slice is not.
	ListLeadsPage(ctx context.Context, campaignID string, limit, skip int) (leads []RemoteLead, raw int, err error)

	// ListEmails returns the message history for one lead in one campaign.
	ListEmails(ctx context.Context, campaignID, email string) ([]RemoteEmail, error)
}

// RemoteCampaign is a campaign as the provider reports it.
type RemoteCampaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// RemoteLead is a provider lead normalized into the canonical shape.
type RemoteLead struct {
	// ProviderLeadID is best-effort; providers do not expose a stable id on
	// every listing call.
	ProviderLeadID string

	Email     string
	FirstName string
	LastName  string
	Company   string

	Interest   Interest
	ReplyCount int

	// Payload keeps the raw provider fields for the lead metadata blob.
	Payload map[string]any
}

// RemoteEmail is one inbound or outbound message on a lead's thread.
type RemoteEmail struct {
	ProviderEmailID string
	ThreadID        string
	Direction       Direction
	From            string
	To              string
	Subject         string
	BodyText        string
	BodyHTML        string
	SentAt          time.Time
}

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Interest is the canonical interest signal. Adapters map provider raw values
// into this set via a strict table with an explicit unknown fallback; there is
// no silent coercion of unrecognized values.
type Interest string

const (
	InterestUnknown          Interest = "unknown"
	InterestNeutral          Interest = "neutral"
	InterestInterested       Interest = "interested"
	InterestNotInterested    Interest = "not_interested"
	InterestWrongPerson      Interest = "wrong_person"
	InterestMeetingBooked    Interest = "meeting_booked"
	InterestMeetingCompleted Interest = "meeting_completed"
	InterestClosed           Interest = "closed"
	InterestOutOfOffice      Interest = "out_of_office"
)
