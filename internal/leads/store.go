package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"
	"github.com/leadpilot/leadsync/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store is the persistence surface for campaigns, leads and thread emails.
//
// Write semantics are at-least-once safe: uniqueness constraints
// ((campaign_id, lower(email)) on leads, provider_email_id on lead_emails)
// are the enforcement mechanism, so a second process running the same sync
// concurrently cannot create duplicates.
type Store interface {
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	UpdateCampaignCredential(ctx context.Context, id string, typ provider.Type, providerCampaignID, apiKey string) error

	FindLeadsByProviderID(ctx context.Context, campaignID, providerLeadID string) ([]Lead, error)
	FindLeadsByEmail(ctx context.Context, campaignID, email string) ([]Lead, error)
	// InsertLead returns ErrDuplicate when the (campaign, email) uniqueness
	// constraint rejects the row.
	InsertLead(ctx context.Context, l *Lead) error
	// UpdateLead reports whether a row matched; callers use a false return to
	// detect drift between provider and local state.
	UpdateLead(ctx context.Context, l *Lead) (matched bool, err error)
	ListLeads(ctx context.Context, campaignID string, limit, offset int) ([]Lead, error)
	// SetLeadStatus is the explicit workflow override; unlike sync writes it
	// may move a lead backward. Milestone timestamps are stamped on first
	// entry into each stage.
	SetLeadStatus(ctx context.Context, leadID string, status Status) error
	FindDuplicateLeads(ctx context.Context) ([]DuplicateGroup, error)

	// InsertEmail reports inserted=false when provider_email_id already
	// exists; duplicates are an expected non-error outcome.
	InsertEmail(ctx context.Context, e *Email) (inserted bool, err error)
}

// SQLStore implements Store on Postgres via database/sql.
type SQLStore struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, clock: time.Now}
}

/* ===================== campaigns ===================== */

func (s *SQLStore) CreateCampaign(ctx context.Context, c *Campaign) error {
	if c.Name == "" {
		return ErrInvalidArgument
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	const q = `
INSERT INTO campaigns (id, name, client_name, provider_type, provider_campaign_id, api_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := s.db.ExecContext(ctx, q,
		c.ID, c.Name, c.ClientName, string(c.ProviderType), c.ProviderCampaignID, c.APIKey, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

const campaignColumns = `id, name, client_name, provider_type, provider_campaign_id, api_key, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (Campaign, error) {
	var c Campaign
	var typ string
	err := row.Scan(&c.ID, &c.Name, &c.ClientName, &typ, &c.ProviderCampaignID, &c.APIKey, &c.CreatedAt, &c.UpdatedAt)
	c.ProviderType = provider.Type(typ)
	return c, err
}

func (s *SQLStore) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	const q = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	const q = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateCampaignCredential(ctx context.Context, id string, typ provider.Type, providerCampaignID, apiKey string) error {
	const q = `
UPDATE campaigns
SET provider_type = $2, provider_campaign_id = $3, api_key = $4, updated_at = $5
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, id, string(typ), providerCampaignID, apiKey, s.clock().UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ===================== leads ===================== */

const leadColumns = `id, campaign_id, email, first_name, last_name, company, provider_lead_id,
	status, has_replied, is_positive_reply, email_reply_count, metadata,
	responded_at, meeting_at, closed_at, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var l Lead
	var status string
	var metadata []byte
	err := row.Scan(
		&l.ID, &l.CampaignID, &l.Email, &l.FirstName, &l.LastName, &l.Company, &l.ProviderLeadID,
		&status, &l.HasReplied, &l.IsPositiveReply, &l.EmailReplyCount, &metadata,
		&l.RespondedAt, &l.MeetingAt, &l.ClosedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	l.Status = Status(status)
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &l.Metadata)
	}
	return l, nil
}

func (s *SQLStore) queryLeads(ctx context.Context, q string, args ...any) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) FindLeadsByProviderID(ctx context.Context, campaignID, providerLeadID string) ([]Lead, error) {
	const q = `
SELECT ` + leadColumns + `
FROM leads
WHERE campaign_id = $1 AND provider_lead_id = $2
ORDER BY created_at, id
`
	return s.queryLeads(ctx, q, campaignID, providerLeadID)
}

func (s *SQLStore) FindLeadsByEmail(ctx context.Context, campaignID, email string) ([]Lead, error) {
	const q = `
SELECT ` + leadColumns + `
FROM leads
WHERE campaign_id = $1 AND lower(email) = lower($2)
ORDER BY created_at, id
`
	return s.queryLeads(ctx, q, campaignID, email)
}

func (s *SQLStore) InsertLead(ctx context.Context, l *Lead) error {
	metadata, err := marshalMetadata(l.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO leads (` + leadColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`
	_, err = s.db.ExecContext(ctx, q,
		l.ID, l.CampaignID, l.Email, l.FirstName, l.LastName, l.Company, l.ProviderLeadID,
		string(l.Status), l.HasReplied, l.IsPositiveReply, l.EmailReplyCount, metadata,
		l.RespondedAt, l.MeetingAt, l.ClosedAt, l.CreatedAt, l.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLStore) UpdateLead(ctx context.Context, l *Lead) (bool, error) {
	metadata, err := marshalMetadata(l.Metadata)
	if err != nil {
		return false, err
	}
	l.UpdatedAt = s.clock().UTC()
	const q = `
UPDATE leads
SET first_name = $2, last_name = $3, company = $4, provider_lead_id = $5,
    status = $6, has_replied = $7, is_positive_reply = $8, email_reply_count = $9,
    metadata = $10, responded_at = $11, meeting_at = $12, closed_at = $13, updated_at = $14
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q,
		l.ID, l.FirstName, l.LastName, l.Company, l.ProviderLeadID,
		string(l.Status), l.HasReplied, l.IsPositiveReply, l.EmailReplyCount,
		metadata, l.RespondedAt, l.MeetingAt, l.ClosedAt, l.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLStore) ListLeads(ctx context.Context, campaignID string, limit, offset int) ([]Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
SELECT ` + leadColumns + `
FROM leads
WHERE campaign_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`
	return s.queryLeads(ctx, q, campaignID, limit, offset)
}

func (s *SQLStore) SetLeadStatus(ctx context.Context, leadID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidArgument
	}
	now := s.clock().UTC()

	// Row lock keeps a concurrent sync pass from interleaving with the
	// override between the read and the write.
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `SELECT responded_at, meeting_at, closed_at FROM leads WHERE id = $1 FOR UPDATE`
		var l Lead
		err := tx.QueryRowContext(ctx, sel, leadID).Scan(&l.RespondedAt, &l.MeetingAt, &l.ClosedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		applyStatus(&l, status, now)

		const upd = `
UPDATE leads
SET status = $2, responded_at = $3, meeting_at = $4, closed_at = $5, updated_at = $6
WHERE id = $1
`
		_, err = tx.ExecContext(ctx, upd, leadID, string(status), l.RespondedAt, l.MeetingAt, l.ClosedAt, now)
		return err
	})
}

func (s *SQLStore) FindDuplicateLeads(ctx context.Context) ([]DuplicateGroup, error) {
	const q = `
SELECT campaign_id, lower(email) AS email, array_agg(id ORDER BY created_at, id) AS lead_ids
FROM leads
GROUP BY campaign_id, lower(email)
HAVING count(*) > 1
ORDER BY campaign_id, lower(email)
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		var ids []byte
		if err := rows.Scan(&g.CampaignID, &g.Email, &ids); err != nil {
			return nil, err
		}
		g.LeadIDs = parsePgTextArray(string(ids))
		out = append(out, g)
	}
	return out, rows.Err()
}

/* ===================== lead emails ===================== */

func (s *SQLStore) InsertEmail(ctx context.Context, e *Email) (bool, error) {
	if e.ProviderEmailID == "" {
		return false, ErrInvalidArgument
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = s.clock().UTC()

	const q = `
INSERT INTO lead_emails (id, lead_id, campaign_id, provider_email_id, thread_id, direction,
	from_addr, to_addr, subject, body_text, body_html, sent_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (provider_email_id) DO NOTHING
`
	res, err := s.db.ExecContext(ctx, q,
		e.ID, e.LeadID, e.CampaignID, e.ProviderEmailID, e.ThreadID, string(e.Direction),
		e.FromAddr, e.ToAddr, e.Subject, e.BodyText, e.BodyHTML, e.SentAt, e.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

/* ===================== helpers ===================== */

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// parsePgTextArray decodes a simple postgres array literal like {a,b,c}.
// Lead ids are uuids, so quoting and escapes never appear.
func parsePgTextArray(s string) []string {
	if len(s) < 2 {
		return nil
	}
	s = s[1 : len(s)-1]
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
