package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSmartleadInterestOf(t *testing.T) {
	cases := map[string]Interest{
		"Interested":        InterestInterested,
		"positive":          InterestInterested,
		"NOT INTERESTED":    InterestNotInterested,
		"do not contact":    InterestNotInterested,
		"Wrong Person":      InterestWrongPerson,
		"meeting request":   InterestMeetingBooked,
		"Meeting Booked":    InterestMeetingBooked,
		"meeting completed": InterestMeetingCompleted,
		"won":               InterestClosed,
		"out of office":     InterestOutOfOffice,
		"  interested  ":    InterestInterested,
		"":                  InterestNeutral,
		"Paused":            InterestUnknown,
	}
	for in, want := range cases {
		if got := smartleadInterestOf(in); got != want {
			t.Errorf("smartleadInterestOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSmartlead_ListLeadsPage(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[
			{"id":12345,"email":"a@x.com","first_name":"Ada","lead_category":"Interested","reply_count":2},
			{"id":12346,"lead_category":"Interested"}
		]}`))
	}))
	defer srv.Close()

	p := NewSmartlead("key", srv.URL)
	got, raw, err := p.ListLeadsPage(context.Background(), "777", 50, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotPath != "/campaigns/777/leads" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "limit=50&offset=100" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(got) != 1 {
		t.Fatalf("got %d leads, want 1 (email-less dropped)", len(got))
	}
	if raw != 2 {
		t.Fatalf("raw = %d, want 2 (dropped item still counted)", raw)
	}
	lead := got[0]
	if lead.ProviderLeadID != "12345" {
		t.Fatalf("numeric id not normalized: %q", lead.ProviderLeadID)
	}
	if lead.Interest != InterestInterested || lead.ReplyCount != 2 {
		t.Fatalf("lead = %+v", lead)
	}
}

func TestSmartlead_ListEmails_ReplyIsInbound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"history":[
			{"stats_id":"s1","type":"SENT","subject":"intro","time":"2026-03-01T08:00:00Z"},
			{"message_id":"m2","type":"REPLY","email_body_text":"tell me more","time":"2026-03-01T12:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	p := NewSmartlead("key", srv.URL)
	got, err := p.ListEmails(context.Background(), "777", "a@x.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d emails", len(got))
	}
	if got[0].ProviderEmailID != "s1" || got[0].Direction != DirectionSent {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].ProviderEmailID != "m2" || got[1].Direction != DirectionReceived {
		t.Fatalf("second = %+v", got[1])
	}
}
