package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
)

// SQLRepo persists runs in the sync_runs table.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) Create(ctx context.Context, run Run) error {
	const q = `
INSERT INTO sync_runs (id, scope, campaign_id, started_at, status, counters, errors)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, '{}', '[]')
`
	_, err := r.db.ExecContext(ctx, q, run.ID, run.Scope, run.CampaignID, run.StartedAt, string(run.Status))
	return err
}

func (r *SQLRepo) Finish(ctx context.Context, run Run) error {
	counters, err := json.Marshal(orEmptyMap(run.Counters))
	if err != nil {
		return err
	}
	errs, err := json.Marshal(orEmptySlice(run.Errors))
	if err != nil {
		return err
	}
	const q = `
UPDATE sync_runs
SET finished_at = $2, status = $3, counters = $4, errors = $5
WHERE id = $1
`
	_, err = r.db.ExecContext(ctx, q, run.ID, run.FinishedAt, string(run.Status), counters, errs)
	return err
}

func (r *SQLRepo) List(ctx context.Context, campaignID string, limit int) ([]Run, error) {
	const q = `
SELECT id, scope, COALESCE(campaign_id, ''), started_at, finished_at, status, counters, errors
FROM sync_runs
WHERE ($1 = '' OR campaign_id = $1)
ORDER BY started_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var status string
		var counters, errs []byte
		if err := rows.Scan(&run.ID, &run.Scope, &run.CampaignID, &run.StartedAt, &run.FinishedAt, &status, &counters, &errs); err != nil {
			return nil, err
		}
		run.Status = RunStatus(status)
		_ = json.Unmarshal(counters, &run.Counters)
		_ = json.Unmarshal(errs, &run.Errors)
		out = append(out, run)
	}
	return out, rows.Err()
}

func orEmptyMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
