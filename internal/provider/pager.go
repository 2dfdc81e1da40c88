package provider

import (
	"context"
	"fmt"
	"time"
)

// Pager drains a paginated leads listing in page order.
//
// Termination rule: a page whose raw item count is below the requested size
// ends the listing. This is authoritative per the provider contract, even if
// a later page could theoretically hold records. The raw count, not the
// normalized slice length, carries the signal: adapters drop malformed or
// email-less items, and a full served page with drops must not end the drain.
//
// A restart always begins at skip 0; cursors are not resumable across runs.
type Pager struct {
	Provider   Provider
	CampaignID string

	// PageSize defaults to 100.
	PageSize int
	// PageDelay is the minimum inter-request delay (rate-limit courtesy).
	// Defaults to 200ms.
	PageDelay time.Duration
	// MaxRetries bounds retries of a single page on transient errors.
	// Defaults to 3.
	MaxRetries int
	// RetryBackoff is the initial backoff, doubled per attempt. Defaults to
	// 500ms.
	RetryBackoff time.Duration

	// sleep is injectable for deterministic tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func (p *Pager) withDefaults() {
	if p.PageSize <= 0 {
		p.PageSize = 100
	}
	if p.PageDelay <= 0 {
		p.PageDelay = 200 * time.Millisecond
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = 500 * time.Millisecond
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
}

// Each visits every lead in page order. fn errors abort the drain and
// surface unchanged. Returns the number of leads visited.
func (p *Pager) Each(ctx context.Context, fn func(RemoteLead) error) (int, error) {
	p.withDefaults()

	visited := 0
	skip := 0
	for {
		page, raw, err := p.fetchPage(ctx, skip)
		if err != nil {
			return visited, err
		}

		for _, lead := range page {
			if err := fn(lead); err != nil {
				return visited, err
			}
			visited++
		}

		if raw < p.PageSize {
			return visited, nil
		}
		skip += p.PageSize

		if err := p.sleep(ctx, p.PageDelay); err != nil {
			return visited, err
		}
	}
}

// fetchPage retries the same page on transient errors with exponential
// backoff; other errors surface immediately.
func (p *Pager) fetchPage(ctx context.Context, skip int) ([]RemoteLead, int, error) {
	backoff := p.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, 0, err
			}
			backoff *= 2
		}
		page, raw, err := p.Provider.ListLeadsPage(ctx, p.CampaignID, p.PageSize, skip)
		if err == nil {
			return page, raw, nil
		}
		if !IsTransient(err) {
			return nil, 0, err
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("page at skip %d failed after %d retries: %w", skip, p.MaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
