package runlog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory run history for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	runs map[string]Run
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{runs: map[string]Run{}}
}

func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *MemoryRepo) Finish(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, campaignID string, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Run
	for _, run := range r.runs {
		if campaignID != "" && run.CampaignID != campaignID {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
