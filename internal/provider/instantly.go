package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

const instantlyBaseURL = "https://api.instantly.ai/api/v1"

// Instantly adapter.
//
// Schema notes (observed drift):
// - The interest signal appears as either `lt_interest_status` or the older
//   `interest_status`; both are numeric codes. `lt_interest_status` wins when
//   both are present.
// - Lead ids are not returned on every listing shape; ProviderLeadID is
//   best-effort.
type Instantly struct {
	client *httpClient
}

func NewInstantly(apiKey, baseURL string) *Instantly {
	if baseURL == "" {
		baseURL = instantlyBaseURL
	}
	return &Instantly{client: newHTTPClient("instantly", baseURL, apiKey, 15*time.Second)}
}

func (p *Instantly) Name() string { return "instantly" }

// instantlyInterest maps Instantly interest codes to the canonical enum.
// Unlisted codes fall back to InterestUnknown.
var instantlyInterest = map[int]Interest{
	0:  InterestOutOfOffice,
	1:  InterestInterested,
	2:  InterestMeetingBooked,
	3:  InterestMeetingCompleted,
	4:  InterestClosed,
	-1: InterestNotInterested,
	-2: InterestWrongPerson,
	-3: InterestNotInterested, // "lost" has no local distinction from not interested
}

type instantlyLead struct {
	ID              string `json:"id"`
	LeadID          string `json:"lead_id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	CompanyName     string `json:"company_name"`
	InterestStatus  *int   `json:"interest_status"`
	LtInterest      *int   `json:"lt_interest_status"`
	EmailReplyCount int    `json:"email_reply_count"`
}

type instantlyLeadList struct {
	Items []json.RawMessage `json:"items"`
}

func (p *Instantly) ValidateKey(ctx context.Context) error {
	q := url.Values{"limit": {"1"}}
	var out struct {
		Items []json.RawMessage `json:"items"`
	}
	return p.client.getJSON(ctx, "/campaign/list", q, &out)
}

func (p *Instantly) ListCampaigns(ctx context.Context) ([]RemoteCampaign, error) {
	var out struct {
		Items []RemoteCampaign `json:"items"`
	}
	if err := p.client.getJSON(ctx, "/campaign/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListLeadsPage returns the normalized page plus the raw item count. Items
// that fail to decode or carry no email are dropped from the slice but still
// count toward raw, so the pager's termination check sees the page the
// provider actually served.
func (p *Instantly) ListLeadsPage(ctx context.Context, campaignID string, limit, skip int) ([]RemoteLead, int, error) {
	body := map[string]any{
		"campaign_id": campaignID,
		"limit":       limit,
		"skip":        skip,
	}
	var out instantlyLeadList
	if err := p.client.postJSON(ctx, "/lead/list", body, &out); err != nil {
		return nil, 0, err
	}

	leads := make([]RemoteLead, 0, len(out.Items))
	for _, raw := range out.Items {
		var item instantlyLead
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Email == "" {
			continue
		}

		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)

		id := item.LeadID
		if id == "" {
			id = item.ID
		}
		leads = append(leads, RemoteLead{
			ProviderLeadID: id,
			Email:          item.Email,
			FirstName:      item.FirstName,
			LastName:       item.LastName,
			Company:        item.CompanyName,
			Interest:       instantlyInterestOf(item),
			ReplyCount:     item.EmailReplyCount,
			Payload:        payload,
		})
	}
	return leads, len(out.Items), nil
}

func instantlyInterestOf(item instantlyLead) Interest {
	code := item.InterestStatus
	if item.LtInterest != nil {
		code = item.LtInterest
	}
	if code == nil {
		return InterestNeutral
	}
	if in, ok := instantlyInterest[*code]; ok {
		return in
	}
	return InterestUnknown
}

type instantlyEmail struct {
	ID          string `json:"id"`
	MessageID   string `json:"message_id"`
	ThreadID    string `json:"thread_id"`
	Type        string `json:"email_type"` // "sent" | "received"
	FromAddress string `json:"from_address_email"`
	ToAddress   string `json:"to_address_email"`
	Subject     string `json:"subject"`
	Body        struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	} `json:"body"`
	Timestamp string `json:"timestamp_email"`
}

func (p *Instantly) ListEmails(ctx context.Context, campaignID, email string) ([]RemoteEmail, error) {
	q := url.Values{
		"campaign_id": {campaignID},
		"lead":        {email},
		"limit":       {strconv.Itoa(100)},
	}
	var out struct {
		Items []instantlyEmail `json:"items"`
	}
	if err := p.client.getJSON(ctx, "/unibox/emails", q, &out); err != nil {
		return nil, err
	}

	emails := make([]RemoteEmail, 0, len(out.Items))
	for _, item := range out.Items {
		id := item.MessageID
		if id == "" {
			id = item.ID
		}
		if id == "" {
			continue
		}
		dir := DirectionSent
		if item.Type == "received" {
			dir = DirectionReceived
		}
		emails = append(emails, RemoteEmail{
			ProviderEmailID: id,
			ThreadID:        item.ThreadID,
			Direction:       dir,
			From:            item.FromAddress,
			To:              item.ToAddress,
			Subject:         item.Subject,
			BodyText:        item.Body.Text,
			BodyHTML:        item.Body.HTML,
			SentAt:          parseTime(item.Timestamp),
		})
	}
	return emails, nil
}
