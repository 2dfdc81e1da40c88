package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/leadpilot/leadsync/internal/classify"
	"github.com/leadpilot/leadsync/internal/events"
	"github.com/leadpilot/leadsync/internal/leads"
	"github.com/leadpilot/leadsync/internal/metrics"
	"github.com/leadpilot/leadsync/internal/provider"
	"github.com/leadpilot/leadsync/internal/runlog"
	"github.com/leadpilot/leadsync/pkg/logger"
)

var ErrCampaignNotSyncable = errors.New("syncer: campaign has no provider credential")

// Options are the tuning knobs for a sync pass, all config-driven.
type Options struct {
	PageSize     int
	PageDelay    time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Workers bounds campaign-level concurrency. Leads within one campaign
	// are always processed in page order.
	Workers int

	// FetchEmails pulls thread history for leads with replies.
	FetchEmails bool

	// LockTTL caps how long a crashed pass can hold a campaign lock.
	LockTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 15 * time.Minute
	}
	return o
}

// Orchestrator drives a sync pass: campaigns -> pager -> identity resolution
// -> status reconciliation -> idempotent writes, with counters reduced into a
// summary.
//
// Failure containment:
// - No error from one lead aborts its campaign.
// - No error from one campaign aborts the run.
// - Cancellation is honored between campaigns, never mid-page, so a restart
//   can always begin at page one.
type Orchestrator struct {
	// Optional collaborators; nil disables the concern.
	Runs       *runlog.Service
	Locker     Locker
	Cache      SummaryCache
	Classifier classify.Classifier
	Events     events.Publisher

	store   leads.Store
	factory provider.Factory
	opts    Options
	log     *slog.Logger

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func New(store leads.Store, factory provider.Factory, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		factory: factory,
		opts:    opts.withDefaults(),
		log:     log,
		clock:   time.Now,
	}
}

// Run executes one sync pass over the scope and returns the summary. The
// returned error covers only pass-level failures (store unreachable, unknown
// campaign); campaign failures live in Summary.Errors.
func (o *Orchestrator) Run(ctx context.Context, scope Scope) (Summary, error) {
	start := o.clock().UTC()
	summary := Summary{Scope: scope.String(), StartedAt: start}

	targets, err := o.targets(ctx, scope)
	if err != nil {
		return summary, err
	}

	var run runlog.Run
	if o.Runs != nil {
		if run, err = o.Runs.Start(ctx, scope.String(), scope.CampaignID); err != nil {
			o.log.Warn("run history open failed", "err", err)
		} else {
			summary.RunID = run.ID
		}
	}

	log := logger.ForRun(o.log, summary.RunID, summary.Scope)
	log.Info("sync pass started", "campaigns", len(targets))

	for result := range o.runCampaigns(ctx, targets) {
		summary.add(result)
	}
	summary.FinishedAt = o.clock().UTC()
	log.Info("sync pass finished",
		"fetched", summary.Totals.Fetched,
		"created", summary.Totals.Created,
		"updated", summary.Totals.Updated,
		"errors", len(summary.Errors))

	o.finish(ctx, run, &summary)
	return summary, nil
}

// targets picks the campaigns a pass covers. Only campaigns with a full
// credential are syncable; in the "all" scope the rest are silently skipped,
// in the single-campaign scope a missing credential is a caller error.
func (o *Orchestrator) targets(ctx context.Context, scope Scope) ([]leads.Campaign, error) {
	if scope.CampaignID != "" {
		c, err := o.store.GetCampaign(ctx, scope.CampaignID)
		if err != nil {
			return nil, err
		}
		if !c.HasCredential() {
			return nil, ErrCampaignNotSyncable
		}
		return []leads.Campaign{c}, nil
	}

	all, err := o.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	var out []leads.Campaign
	for _, c := range all {
		if c.HasCredential() {
			out = append(out, c)
		}
	}
	return out, nil
}

// runCampaigns fans campaigns out to a bounded worker pool and streams
// results back. The feeder checks ctx before each campaign, which is the
// only cancellation point.
func (o *Orchestrator) runCampaigns(ctx context.Context, targets []leads.Campaign) <-chan CampaignResult {
	jobs := make(chan leads.Campaign)
	results := make(chan CampaignResult)

	var wg sync.WaitGroup
	for i := 0; i < o.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- o.syncCampaign(ctx, c)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range targets {
			select {
			case <-ctx.Done():
				return
			case jobs <- c:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (o *Orchestrator) syncCampaign(ctx context.Context, c leads.Campaign) CampaignResult {
	result := CampaignResult{CampaignID: c.ID, CampaignName: c.Name}
	log := o.log.With("campaign_id", c.ID, "provider", string(c.ProviderType))

	prov, err := o.factory(c.ProviderType, c.APIKey)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if o.Locker != nil {
		release, ok, err := o.Locker.Acquire(ctx, c.ID, o.opts.LockTTL)
		if err != nil {
			log.Warn("run lock unavailable, proceeding unlocked", "err", err)
		} else if !ok {
			result.Error = "another sync pass is already running"
			return result
		} else {
			defer release()
		}
	}

	pager := provider.Pager{
		Provider:     prov,
		CampaignID:   c.ProviderCampaignID,
		PageSize:     o.opts.PageSize,
		PageDelay:    o.opts.PageDelay,
		MaxRetries:   o.opts.MaxRetries,
		RetryBackoff: o.opts.RetryBackoff,
	}

	visited, err := pager.Each(ctx, func(remote provider.RemoteLead) error {
		o.processLead(ctx, log, prov, c, remote, &result.Counters)
		return nil
	})
	result.Counters.Fetched = visited

	if err != nil {
		metrics.RecordProviderError(prov.Name(), errorClass(err))
		result.Error = err.Error()
		log.Error("campaign pass failed", "err", err, "fetched", visited)
		return result
	}

	log.Info("campaign pass complete",
		"fetched", result.Counters.Fetched,
		"created", result.Counters.Created,
		"updated", result.Counters.Updated,
		"skipped", result.Counters.Skipped,
	)
	return result
}

// processLead runs resolve -> reconcile -> upsert -> thread fetch for one
// incoming lead. Lead-level failures are counted, logged and swallowed.
func (o *Orchestrator) processLead(ctx context.Context, log *slog.Logger, prov provider.Provider, c leads.Campaign, remote provider.RemoteLead, counters *Counters) {
	now := o.clock().UTC()

	res, err := leads.Resolve(ctx, o.store, c.ID, remote, now)
	if err != nil {
		log.Warn("identity resolution failed", "email", remote.Email, "err", err)
		counters.NotFound++
		metrics.RecordLead("not_found")
		return
	}
	if res.Ambiguous {
		counters.Ambiguous++
		metrics.RecordLead("ambiguous")
		log.Warn("ambiguous identity, picked earliest row", "email", remote.Email, "lead_id", res.Lead.ID)
	}

	lead := res.Lead
	leads.Reconcile(lead, remote, now)
	refreshProfile(lead, remote)

	if res.Created {
		err = o.store.InsertLead(ctx, lead)
		switch {
		case errors.Is(err, leads.ErrDuplicate):
			// A concurrent pass inserted first; the constraint did its job.
			// Re-resolve so the rest of the pipeline works on the winning
			// row, not the never-inserted one.
			counters.Skipped++
			metrics.RecordLead("skipped")
			res, err = leads.Resolve(ctx, o.store, c.ID, remote, now)
			if err != nil || res.Created {
				log.Warn("winning row lookup failed after duplicate skip", "email", remote.Email, "err", err)
				return
			}
			lead = res.Lead
			leads.Reconcile(lead, remote, now)
			refreshProfile(lead, remote)
			if _, err := o.store.UpdateLead(ctx, lead); err != nil {
				log.Warn("lead update failed", "lead_id", lead.ID, "err", err)
				return
			}
		case err != nil:
			log.Warn("lead insert failed", "email", remote.Email, "err", err)
			return
		default:
			counters.Created++
			metrics.RecordLead("created")
		}
	} else {
		matched, err := o.store.UpdateLead(ctx, lead)
		if err != nil {
			log.Warn("lead update failed", "lead_id", lead.ID, "err", err)
			return
		}
		if !matched {
			counters.NotFound++
			metrics.RecordLead("not_found")
			return
		}
		counters.Updated++
		metrics.RecordLead("updated")
	}

	if o.opts.FetchEmails && remote.ReplyCount > 0 {
		o.syncThread(ctx, log, prov, c, lead, remote, counters)
	}
}

// syncThread pulls the message history for a replied lead, inserts new
// entries and runs the reply classifier over the latest inbound message.
func (o *Orchestrator) syncThread(ctx context.Context, log *slog.Logger, prov provider.Provider, c leads.Campaign, lead *leads.Lead, remote provider.RemoteLead, counters *Counters) {
	msgs, err := prov.ListEmails(ctx, c.ProviderCampaignID, remote.Email)
	if err != nil {
		metrics.RecordProviderError(prov.Name(), errorClass(err))
		log.Warn("thread fetch failed", "lead_id", lead.ID, "err", err)
		return
	}

	var latestInbound *provider.RemoteEmail
	for i := range msgs {
		m := msgs[i]
		inserted, err := o.store.InsertEmail(ctx, &leads.Email{
			LeadID:          lead.ID,
			CampaignID:      c.ID,
			ProviderEmailID: m.ProviderEmailID,
			ThreadID:        m.ThreadID,
			Direction:       m.Direction,
			FromAddr:        m.From,
			ToAddr:          m.To,
			Subject:         m.Subject,
			BodyText:        m.BodyText,
			BodyHTML:        m.BodyHTML,
			SentAt:          m.SentAt,
		})
		if err != nil {
			log.Warn("email insert failed", "lead_id", lead.ID, "provider_email_id", m.ProviderEmailID, "err", err)
			continue
		}
		if inserted {
			counters.Emails++
		}
		if m.Direction == provider.DirectionReceived {
			if latestInbound == nil || m.SentAt.After(latestInbound.SentAt) {
				latestInbound = &msgs[i]
			}
		}
	}

	if o.Classifier == nil || lead.IsPositiveReply || latestInbound == nil {
		return
	}
	verdict, err := o.Classifier.Classify(ctx, latestInbound.Subject, latestInbound.BodyText)
	if err != nil {
		log.Warn("reply classification failed", "lead_id", lead.ID, "err", err)
		return
	}
	if verdict != classify.VerdictPositive {
		return
	}
	if leads.MarkPositive(lead) {
		if _, err := o.store.UpdateLead(ctx, lead); err != nil {
			log.Warn("positive flag update failed", "lead_id", lead.ID, "err", err)
			return
		}
		o.publishPositive(ctx, c, lead)
	}
}

func (o *Orchestrator) publishPositive(ctx context.Context, c leads.Campaign, lead *leads.Lead) {
	if o.Events == nil {
		return
	}
	err := o.Events.PublishPositiveReply(ctx, events.PositiveReply{
		CampaignID: c.ID,
		LeadID:     lead.ID,
		Email:      lead.Email,
		Status:     string(lead.Status),
		ObservedAt: o.clock().UTC(),
	})
	if err != nil {
		o.log.Warn("positive reply event publish failed", "lead_id", lead.ID, "err", err)
	}
}

// finish records run history, metrics, cache and the completion event. All
// best-effort; the summary is already final.
func (o *Orchestrator) finish(ctx context.Context, run runlog.Run, summary *Summary) {
	status := "success"
	if len(summary.Errors) > 0 {
		status = "partial"
	}
	metrics.RecordRun(summary.Scope, status, summary.FinishedAt.Sub(summary.StartedAt))

	if o.Runs != nil && run.ID != "" {
		if err := o.Runs.Finish(ctx, run, summary.Totals.Map(), summary.Errors); err != nil {
			o.log.Warn("run history close failed", "run_id", run.ID, "err", err)
		}
	}
	if o.Cache != nil {
		if err := o.Cache.Save(ctx, summary.Scope, *summary); err != nil {
			o.log.Warn("summary cache save failed", "err", err)
		}
	}
	if o.Events != nil {
		err := o.Events.PublishSyncCompleted(ctx, events.SyncCompleted{
			RunID:      summary.RunID,
			Scope:      summary.Scope,
			Counters:   summary.Totals.Map(),
			Errors:     summary.Errors,
			FinishedAt: summary.FinishedAt,
		})
		if err != nil {
			o.log.Warn("completion event publish failed", "err", err)
		}
	}
}

// refreshProfile backfills name fields the provider knows and the local row
// does not, and replaces the metadata blob with the latest payload.
func refreshProfile(lead *leads.Lead, remote provider.RemoteLead) {
	if lead.FirstName == "" {
		lead.FirstName = remote.FirstName
	}
	if lead.LastName == "" {
		lead.LastName = remote.LastName
	}
	if lead.Company == "" {
		lead.Company = remote.Company
	}
	if remote.Payload != nil {
		lead.Metadata = remote.Payload
	}
}

func errorClass(err error) string {
	switch {
	case provider.IsCredential(err):
		return "credential"
	case provider.IsTransient(err):
		return "transient"
	default:
		return "api"
	}
}
