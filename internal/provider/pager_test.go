package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// pagedStub serves a fixed set of leads in pages and can inject errors per
// call attempt.
type pagedStub struct {
	leads []RemoteLead
	skips []int
	// failures maps call number (0-based) to the error returned.
	failures map[int]error
	calls    int
}

func (s *pagedStub) Name() string                                        { return "stub" }
func (s *pagedStub) ValidateKey(ctx context.Context) error               { return nil }
func (s *pagedStub) ListCampaigns(ctx context.Context) ([]RemoteCampaign, error) { return nil, nil }
func (s *pagedStub) ListEmails(ctx context.Context, campaignID, email string) ([]RemoteEmail, error) {
	return nil, nil
}

func (s *pagedStub) ListLeadsPage(ctx context.Context, campaignID string, limit, skip int) ([]RemoteLead, int, error) {
	call := s.calls
	s.calls++
	if err, ok := s.failures[call]; ok {
		return nil, 0, err
	}
	s.skips = append(s.skips, skip)
	if skip >= len(s.leads) {
		return nil, 0, nil
	}
	end := skip + limit
	if end > len(s.leads) {
		end = len(s.leads)
	}
	page := s.leads[skip:end]
	return page, len(page), nil
}

func makeLeads(n int) []RemoteLead {
	out := make([]RemoteLead, n)
	for i := range out {
		out[i] = RemoteLead{Email: fmt.Sprintf("lead%d@x.com", i)}
	}
	return out
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestPager_ShortPageTerminates(t *testing.T) {
	stub := &pagedStub{leads: makeLeads(247)}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 100, sleep: noSleep}

	visited, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if visited != 247 {
		t.Fatalf("visited = %d, want 247", visited)
	}
	if len(stub.skips) != 3 || stub.skips[0] != 0 || stub.skips[1] != 100 || stub.skips[2] != 200 {
		t.Fatalf("skips = %v", stub.skips)
	}
}

func TestPager_FullLastPageFetchesEmptyPage(t *testing.T) {
	// 200 leads at page size 100: the third request returns an empty page,
	// which is shorter than the limit and ends the drain.
	stub := &pagedStub{leads: makeLeads(200)}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 100, sleep: noSleep}

	visited, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if visited != 200 {
		t.Fatalf("visited = %d, want 200", visited)
	}
	if len(stub.skips) != 3 {
		t.Fatalf("skips = %v, want three fetches", stub.skips)
	}
}

// filteringStub serves fixed pages whose raw counts can exceed the slice
// length, the way an adapter reports a page after dropping malformed or
// email-less items.
type filteringStub struct {
	pagedStub
	pages [][]RemoteLead
	raws  []int
}

func (s *filteringStub) ListLeadsPage(ctx context.Context, campaignID string, limit, skip int) ([]RemoteLead, int, error) {
	call := s.calls
	s.calls++
	if call >= len(s.pages) {
		return nil, 0, nil
	}
	return s.pages[call], s.raws[call], nil
}

func TestPager_DroppedItemsDoNotEndDrain(t *testing.T) {
	// First page is raw-full but one item was filtered out by the adapter.
	// The drain must continue to the later pages instead of reading the
	// short slice as end-of-data.
	stub := &filteringStub{
		pages: [][]RemoteLead{
			{{Email: "a@x.com"}},
			{{Email: "b@x.com"}, {Email: "c@x.com"}},
			nil,
		},
		raws: []int{2, 2, 0},
	}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 2, sleep: noSleep}

	visited, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if visited != 3 {
		t.Fatalf("visited = %d, want 3", visited)
	}
	if stub.calls != 3 {
		t.Fatalf("calls = %d, want 3", stub.calls)
	}
}

func TestPager_RetriesTransientWithBackoff(t *testing.T) {
	stub := &pagedStub{
		leads: makeLeads(5),
		failures: map[int]error{
			0: &TransientError{Provider: "stub", Err: errors.New("503")},
			1: &TransientError{Provider: "stub", Err: errors.New("503")},
		},
	}
	var sleeps []time.Duration
	p := Pager{
		Provider: stub, CampaignID: "c", PageSize: 100,
		MaxRetries: 3, RetryBackoff: 500 * time.Millisecond,
		sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}

	visited, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if visited != 5 {
		t.Fatalf("visited = %d, want 5", visited)
	}
	if len(sleeps) != 2 || sleeps[0] != 500*time.Millisecond || sleeps[1] != time.Second {
		t.Fatalf("sleeps = %v, want doubling backoff", sleeps)
	}
}

func TestPager_ExhaustedRetriesSurface(t *testing.T) {
	transient := &TransientError{Provider: "stub", Err: errors.New("503")}
	stub := &pagedStub{
		leads:    makeLeads(5),
		failures: map[int]error{0: transient, 1: transient, 2: transient, 3: transient},
	}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 100, MaxRetries: 3, sleep: noSleep}

	_, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if !IsTransient(err) {
		t.Fatalf("wrapped error lost its class: %v", err)
	}
}

func TestPager_NonTransientNotRetried(t *testing.T) {
	stub := &pagedStub{
		leads:    makeLeads(5),
		failures: map[int]error{0: &CredentialError{Provider: "stub"}},
	}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 100, sleep: noSleep}

	_, err := p.Each(context.Background(), func(RemoteLead) error { return nil })
	if !IsCredential(err) {
		t.Fatalf("expected credential error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("calls = %d, credential errors must not be retried", stub.calls)
	}
}

func TestPager_CallbackErrorAborts(t *testing.T) {
	stub := &pagedStub{leads: makeLeads(10)}
	p := Pager{Provider: stub, CampaignID: "c", PageSize: 100, sleep: noSleep}

	boom := errors.New("boom")
	visited, err := p.Each(context.Background(), func(l RemoteLead) error {
		if l.Email == "lead3@x.com" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want callback error", err)
	}
	if visited != 3 {
		t.Fatalf("visited = %d, want 3", visited)
	}
}
