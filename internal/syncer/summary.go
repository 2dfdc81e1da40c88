package syncer

import "time"

// Scope selects what a sync pass covers: one campaign or every campaign that
// has a provider credential.
type Scope struct {
	CampaignID string
}

func (s Scope) String() string {
	if s.CampaignID == "" {
		return "all"
	}
	return "campaign"
}

// Counters are the per-pass tallies. They are combined by summation only;
// workers never share a mutable counter.
type Counters struct {
	Fetched   int `json:"fetched"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`   // duplicate-key insert losses
	Ambiguous int `json:"ambiguous"` // multi-row identity matches
	NotFound  int `json:"not_found"` // update matched no row
	Emails    int `json:"emails"`    // thread entries inserted
}

func (c *Counters) Add(o Counters) {
	c.Fetched += o.Fetched
	c.Created += o.Created
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Ambiguous += o.Ambiguous
	c.NotFound += o.NotFound
	c.Emails += o.Emails
}

func (c Counters) Map() map[string]int {
	return map[string]int{
		"fetched":   c.Fetched,
		"created":   c.Created,
		"updated":   c.Updated,
		"skipped":   c.Skipped,
		"ambiguous": c.Ambiguous,
		"not_found": c.NotFound,
		"emails":    c.Emails,
	}
}

// CampaignResult is the outcome of one campaign's pass. A zero-lead pass is
// a valid result, not an error.
type CampaignResult struct {
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	Counters     Counters `json:"counters"`
	Error        string   `json:"error,omitempty"`
}

// Summary is returned to the invoking collaborator. Failure is visible only
// as a non-empty Errors list; the caller decides whether to alert.
type Summary struct {
	RunID string `json:"run_id,omitempty"`
	Scope string `json:"scope"`

	Totals    Counters         `json:"totals"`
	Campaigns []CampaignResult `json:"campaigns"`
	Errors    []string         `json:"errors,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *Summary) add(r CampaignResult) {
	s.Campaigns = append(s.Campaigns, r)
	s.Totals.Add(r.Counters)
	if r.Error != "" {
		s.Errors = append(s.Errors, r.CampaignName+": "+r.Error)
	}
}
