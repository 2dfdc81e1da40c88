package syncer

import (
	"testing"

	"github.com/leadpilot/leadsync/internal/leads"
)

func TestNewScheduler_EmptySpecDisabled(t *testing.T) {
	orch := New(leads.NewMemoryStore(), stubFactory(&stubProvider{}), Options{}, nil)

	s, err := NewScheduler("", orch, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s != nil {
		t.Fatalf("empty spec must disable scheduling")
	}

	// Nil scheduler is safe to drive.
	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	orch := New(leads.NewMemoryStore(), stubFactory(&stubProvider{}), Options{}, nil)

	if _, err := NewScheduler("not a cron spec", orch, nil); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestNewScheduler_ValidSpec(t *testing.T) {
	orch := New(leads.NewMemoryStore(), stubFactory(&stubProvider{}), Options{}, nil)

	s, err := NewScheduler("*/15 * * * *", orch, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s == nil {
		t.Fatalf("expected scheduler")
	}
	s.Start()
	s.Stop()
}
