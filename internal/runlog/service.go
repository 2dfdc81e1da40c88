package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for run history.
//
// Runs are append-then-finish: Start writes the row, Finish fills in the
// outcome. No Update/Delete beyond that.
type Repository interface {
	Create(ctx context.Context, r Run) error
	Finish(ctx context.Context, r Run) error
	List(ctx context.Context, campaignID string, limit int) ([]Run, error)
}

var ErrInvalidRun = errors.New("runlog: invalid run")

// Service records sync-run history. Callers treat recording as best-effort;
// a history write must never fail a sync pass, so the orchestrator logs and
// drops errors returned from here.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Start opens a run record and returns it with id and start time set.
func (s *Service) Start(ctx context.Context, scope, campaignID string) (Run, error) {
	if scope == "" {
		return Run{}, ErrInvalidRun
	}
	r := Run{
		ID:         uuid.NewString(),
		Scope:      scope,
		CampaignID: campaignID,
		StartedAt:  s.clock().UTC(),
		Status:     RunStatusRunning,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Run{}, err
	}
	return r, nil
}

// Finish closes a run with its counters and error list. Status derives from
// the error list: empty means success, non-empty partial.
func (s *Service) Finish(ctx context.Context, r Run, counters map[string]int, errs []string) error {
	now := s.clock().UTC()
	r.FinishedAt = &now
	r.Counters = counters
	r.Errors = errs
	if len(errs) == 0 {
		r.Status = RunStatusSuccess
	} else {
		r.Status = RunStatusPartial
	}
	return s.repo.Finish(ctx, r)
}

// Fail closes a run that could not complete at all.
func (s *Service) Fail(ctx context.Context, r Run, err error) error {
	now := s.clock().UTC()
	r.FinishedAt = &now
	r.Status = RunStatusFailed
	if err != nil {
		r.Errors = []string{err.Error()}
	}
	return s.repo.Finish(ctx, r)
}

// List returns recent runs, newest first.
func (s *Service) List(ctx context.Context, campaignID string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	return s.repo.List(ctx, campaignID, limit)
}
