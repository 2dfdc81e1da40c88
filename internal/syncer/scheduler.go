package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic full sync passes. An empty cron spec disables
// scheduling entirely (manual and API triggers still work).
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewScheduler(spec string, orch *Orchestrator, log *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		log.Info("scheduled sync starting")
		summary, err := orch.Run(ctx, Scope{})
		if err != nil {
			log.Error("scheduled sync failed", "err", err)
			return
		}
		log.Info("scheduled sync finished",
			"run_id", summary.RunID,
			"fetched", summary.Totals.Fetched,
			"created", summary.Totals.Created,
			"updated", summary.Totals.Updated,
			"errors", len(summary.Errors),
		)
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
}

// Stop waits for a running job to finish before returning.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
