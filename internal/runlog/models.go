package runlog

import "time"

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial" // finished with campaign-level errors
	RunStatusFailed  RunStatus = "failed"
)

// Run is one persisted sync pass. Counters stay schemaless (jsonb) so the
// engine can grow counters without migrations.
type Run struct {
	ID string `json:"id"`

	// Scope is "all" or "campaign".
	Scope      string `json:"scope"`
	CampaignID string `json:"campaign_id,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     RunStatus  `json:"status"`

	Counters map[string]int `json:"counters,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}
