package runlog

import (
	"context"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestService_StartAndFinish(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	svc.clock = fixedClock(start)

	run, err := svc.Start(context.Background(), "all", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if run.ID == "" || run.Status != RunStatusRunning || !run.StartedAt.Equal(start) {
		t.Fatalf("run = %+v", run)
	}

	svc.clock = fixedClock(start.Add(time.Minute))
	if err := svc.Finish(context.Background(), run, map[string]int{"fetched": 10}, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := svc.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d runs", len(got))
	}
	if got[0].Status != RunStatusSuccess {
		t.Fatalf("status = %q, want success", got[0].Status)
	}
	if got[0].FinishedAt == nil || !got[0].FinishedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("finished_at = %v", got[0].FinishedAt)
	}
	if got[0].Counters["fetched"] != 10 {
		t.Fatalf("counters = %v", got[0].Counters)
	}
}

func TestService_FinishWithErrorsIsPartial(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	run, err := svc.Start(context.Background(), "campaign", "c1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Finish(context.Background(), run, nil, []string{"acme: provider timeout"}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, _ := svc.List(context.Background(), "c1", 10)
	if len(got) != 1 || got[0].Status != RunStatusPartial {
		t.Fatalf("got = %+v", got)
	}
}

func TestService_Fail(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	run, err := svc.Start(context.Background(), "all", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Fail(context.Background(), run, context.DeadlineExceeded); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, _ := svc.List(context.Background(), "", 10)
	if len(got) != 1 || got[0].Status != RunStatusFailed {
		t.Fatalf("got = %+v", got)
	}
	if len(got[0].Errors) != 1 {
		t.Fatalf("errors = %v", got[0].Errors)
	}
}

func TestService_StartRequiresScope(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Start(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error for empty scope")
	}
}

func TestService_ListFiltersAndOrders(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		svc.clock = fixedClock(base.Add(time.Duration(i) * time.Hour))
		if _, err := svc.Start(context.Background(), "campaign", "c1"); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	svc.clock = fixedClock(base.Add(10 * time.Hour))
	if _, err := svc.Start(context.Background(), "campaign", "c2"); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := svc.List(context.Background(), "c1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want limit applied", len(got))
	}
	if !got[0].StartedAt.After(got[1].StartedAt) {
		t.Fatalf("runs not newest-first: %v, %v", got[0].StartedAt, got[1].StartedAt)
	}
}
