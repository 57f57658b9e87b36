package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/warroomhq/warroom/internal/domain"
)

// PostgresStore persists campaigns and runs in Postgres via lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL DEFAULT '',
			campaign_type TEXT NOT NULL DEFAULT '',
			target_audience TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			budget TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL DEFAULT '',
			channels TEXT[] NOT NULL DEFAULT '{}',
			duration TEXT NOT NULL DEFAULT '',
			product_info TEXT NOT NULL DEFAULT '',
			blueprint TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT 'html',
			status TEXT NOT NULL DEFAULT 'draft',
			last_run_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dispatch_runs (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dispatch_outcomes (
			run_id TEXT NOT NULL REFERENCES dispatch_runs(id) ON DELETE CASCADE,
			position INT NOT NULL,
			address TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error_detail TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_campaign ON dispatch_runs(campaign_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (
			id, company_name, campaign_type, target_audience, location,
			budget, currency, channels, duration, product_info,
			blueprint, subject, body, content_type, status, last_run_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			blueprint = EXCLUDED.blueprint,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			content_type = EXCLUDED.content_type,
			status = EXCLUDED.status,
			last_run_id = EXCLUDED.last_run_id,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.CompanyName, c.CampaignType, c.TargetAudience, c.Location,
		c.Budget, c.Currency, pq.Array(c.Channels), c.Duration, c.ProductInfo,
		c.Blueprint, c.Template.Subject, c.Template.Body, string(c.Template.ContentType),
		string(c.Status), c.LastRunID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save campaign %s: %w", c.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_name, campaign_type, target_audience, location,
			budget, currency, channels, duration, product_info,
			blueprint, subject, body, content_type, status, last_run_id,
			created_at, updated_at
		FROM campaigns WHERE id = $1`, id)

	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_name, campaign_type, target_audience, location,
			budget, currency, channels, duration, product_info,
			blueprint, subject, body, content_type, status, last_run_id,
			created_at, updated_at
		FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var c domain.Campaign
	var channels pq.StringArray
	var contentType, status string

	err := row.Scan(&c.ID, &c.CompanyName, &c.CampaignType, &c.TargetAudience, &c.Location,
		&c.Budget, &c.Currency, &channels, &c.Duration, &c.ProductInfo,
		&c.Blueprint, &c.Template.Subject, &c.Template.Body, &contentType,
		&status, &c.LastRunID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Channels = channels
	c.Template.ContentType = domain.ContentType(contentType)
	c.Status = domain.CampaignStatus(status)
	return &c, nil
}

// SaveRun writes the run and its ordered outcome log in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run *domain.DispatchRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dispatch_runs (id, campaign_id, state, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			completed_at = EXCLUDED.completed_at`,
		run.ID, run.CampaignID, string(run.State), run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dispatch_outcomes WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear outcomes for %s: %w", run.ID, err)
	}

	for i, o := range run.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dispatch_outcomes
				(run_id, position, address, display_name, status, error_detail, recorded_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			run.ID, i, o.Recipient.Address, o.DisplayName, string(o.Status), o.ErrorDetail, o.Timestamp)
		if err != nil {
			return fmt.Errorf("save outcome %d of %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*domain.DispatchRun, error) {
	var run domain.DispatchRun
	var state string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, state, started_at, completed_at
		FROM dispatch_runs WHERE id = $1`, id).
		Scan(&run.ID, &run.CampaignID, &state, &run.StartedAt, &run.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	run.State = domain.RunState(state)

	rows, err := s.db.QueryContext(ctx, `
		SELECT address, display_name, status, error_detail, recorded_at
		FROM dispatch_outcomes WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get outcomes for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.DeliveryOutcome
		var status string
		if err := rows.Scan(&o.Recipient.Address, &o.DisplayName, &status, &o.ErrorDetail, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = domain.DeliveryStatus(status)
		o.Recipient.DisplayName = o.DisplayName
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, campaignID string) ([]*domain.DispatchRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM dispatch_runs WHERE campaign_id = $1 ORDER BY started_at DESC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", campaignID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.DispatchRun, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}
