package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const smartleadBaseURL = "https://server.smartlead.ai/api/v1"

// Smartlead adapter. Interest arrives as a free-text category label on the
// lead; the mapping table below is the frozen contract, anything else maps to
// InterestUnknown.
type Smartlead struct {
	client *httpClient
}

func NewSmartlead(apiKey, baseURL string) *Smartlead {
	if baseURL == "" {
		baseURL = smartleadBaseURL
	}
	return &Smartlead{client: newHTTPClient("smartlead", baseURL, apiKey, 15*time.Second)}
}

func (p *Smartlead) Name() string { return "smartlead" }

var smartleadInterest = map[string]Interest{
	"interested":        InterestInterested,
	"positive":          InterestInterested,
	"not interested":    InterestNotInterested,
	"do not contact":    InterestNotInterested,
	"wrong person":      InterestWrongPerson,
	"meeting request":   InterestMeetingBooked,
	"meeting booked":    InterestMeetingBooked,
	"meeting completed": InterestMeetingCompleted,
	"closed":            InterestClosed,
	"won":               InterestClosed,
	"out of office":     InterestOutOfOffice,
	"information request": InterestNeutral,
}

func smartleadInterestOf(category string) Interest {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return InterestNeutral
	}
	if in, ok := smartleadInterest[category]; ok {
		return in
	}
	return InterestUnknown
}

type smartleadLead struct {
	ID           json.Number `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	CompanyName  string      `json:"company_name"`
	LeadCategory string      `json:"lead_category"`
	ReplyCount   int         `json:"reply_count"`
}

func (p *Smartlead) ValidateKey(ctx context.Context) error {
	q := url.Values{"limit": {"1"}}
	var out []RemoteCampaign
	return p.client.getJSON(ctx, "/campaigns", q, &out)
}

func (p *Smartlead) ListCampaigns(ctx context.Context) ([]RemoteCampaign, error) {
	var out []struct {
		ID     json.Number `json:"id"`
		Name   string      `json:"name"`
		Status string      `json:"status"`
	}
	if err := p.client.getJSON(ctx, "/campaigns", nil, &out); err != nil {
		return nil, err
	}
	campaigns := make([]RemoteCampaign, 0, len(out))
	for _, item := range out {
		campaigns = append(campaigns, RemoteCampaign{ID: item.ID.String(), Name: item.Name, Status: item.Status})
	}
	return campaigns, nil
}

// ListLeadsPage returns the normalized page plus the raw item count; dropped
// items (undecodable, email-less) still count toward raw so pagination
// terminates on the served page size, not the filtered one.
func (p *Smartlead) ListLeadsPage(ctx context.Context, campaignID string, limit, skip int) ([]RemoteLead, int, error) {
	q := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(skip)},
	}
	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	path := fmt.Sprintf("/campaigns/%s/leads", url.PathEscape(campaignID))
	if err := p.client.getJSON(ctx, path, q, &out); err != nil {
		return nil, 0, err
	}

	leads := make([]RemoteLead, 0, len(out.Data))
	for _, raw := range out.Data {
		var item smartleadLead
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Email == "" {
			continue
		}
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)

		leads = append(leads, RemoteLead{
			ProviderLeadID: item.ID.String(),
			Email:          item.Email,
			FirstName:      item.FirstName,
			LastName:       item.LastName,
			Company:        item.CompanyName,
			Interest:       smartleadInterestOf(item.LeadCategory),
			ReplyCount:     item.ReplyCount,
			Payload:        payload,
		})
	}
	return leads, len(out.Data), nil
}

type smartleadMessage struct {
	StatsID   string `json:"stats_id"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"email_thread_id"`
	Type      string `json:"type"` // "SENT" | "REPLY"
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	BodyText  string `json:"email_body_text"`
	BodyHTML  string `json:"email_body"`
	Time      string `json:"time"`
}

func (p *Smartlead) ListEmails(ctx context.Context, campaignID, email string) ([]RemoteEmail, error) {
	path := fmt.Sprintf("/campaigns/%s/leads/%s/message-history",
		url.PathEscape(campaignID), url.PathEscape(email))
	var out struct {
		History []smartleadMessage `json:"history"`
	}
	if err := p.client.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}

	emails := make([]RemoteEmail, 0, len(out.History))
	for _, item := range out.History {
		id := item.MessageID
		if id == "" {
			id = item.StatsID
		}
		if id == "" {
			continue
		}
		dir := DirectionSent
		if strings.EqualFold(item.Type, "REPLY") {
			dir = DirectionReceived
		}
		emails = append(emails, RemoteEmail{
			ProviderEmailID: id,
			ThreadID:        item.ThreadID,
			Direction:       dir,
			From:            item.From,
			To:              item.To,
			Subject:         item.Subject,
			BodyText:        item.BodyText,
			BodyHTML:        item.BodyHTML,
			SentAt:          parseTime(item.Time),
		})
	}
	return emails, nil
}
