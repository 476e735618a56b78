package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/db"
	"github.com/sells-group/lead-api/internal/model"
)

// PostgresStore implements LeadStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

const (
	insertLeadSQL = `INSERT INTO leads (id, name, email, company, score, category, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	getLeadSQL    = `SELECT payload, created_at FROM leads WHERE id = $1`
)

// NewPostgres creates a PostgresStore with a connection pool. Connections
// are opened lazily and need no schema, so Ping and Migrate work on an
// empty database.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := poolConfig(connString, poolCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

func poolConfig(connString string, poolCfg *PoolConfig) (*pgxpool.Config, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxCfg, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT,
	company    TEXT,
	score      INTEGER NOT NULL,
	category   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_category_score ON leads(category, score);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, lead *model.EnrichedLead) error {
	payload, err := prepareInsert(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: insert lead")
	}

	_, err = s.pool.Exec(ctx, insertLeadSQL,
		lead.ID, lead.Name, nullIfEmpty(lead.Email), nullIfEmpty(lead.Company),
		lead.Score, string(lead.Category), payload, lead.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert lead %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.EnrichedLead, error) {
	var payload []byte
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, getLeadSQL, id).Scan(&payload, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return decodeLead(payload, createdAt)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error) {
	filter = filter.normalized()

	query := `SELECT payload, created_at FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY created_at DESC, id DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, filter.Limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	leads := []model.EnrichedLead{}
	for rows.Next() {
		var payload []byte
		var createdAt time.Time
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		lead, err := decodeLead(payload, createdAt)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

// prepareInsert fills ID and CreatedAt when unset and returns the JSON payload.
func prepareInsert(lead *model.EnrichedLead) ([]byte, error) {
	if lead == nil {
		return nil, eris.New("nil lead")
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(lead)
	if err != nil {
		return nil, eris.Wrap(err, "marshal lead")
	}
	return payload, nil
}

func decodeLead(payload []byte, createdAt time.Time) (*model.EnrichedLead, error) {
	var lead model.EnrichedLead
	if err := json.Unmarshal(payload, &lead); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal lead")
	}
	lead.CreatedAt = createdAt.UTC()
	return &lead, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
