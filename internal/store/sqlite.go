package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-api/internal/model"
)

// SQLiteStore implements LeadStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied by the driver to every pooled connection.
// busy_timeout comes first so the others wait on a locked database.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: open")
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN turns a path or file: URI into a URI carrying the connection
// pragmas as _pragma parameters.
func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT,
	company    TEXT,
	score      INTEGER NOT NULL,
	category   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_category_score ON leads(category, score);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertLead(ctx context.Context, lead *model.EnrichedLead) error {
	payload, err := prepareInsert(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, company, score, category, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, nullIfEmpty(lead.Email), nullIfEmpty(lead.Company),
		lead.Score, string(lead.Category), string(payload), lead.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
	}
	return nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.EnrichedLead, error) {
	var payload string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM leads WHERE id = ?`, id,
	).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return decodeLead([]byte(payload), createdAt)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error) {
	filter = filter.normalized()

	query := `SELECT payload, created_at FROM leads WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.Limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	leads := []model.EnrichedLead{}
	for rows.Next() {
		var payload string
		var createdAt time.Time
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		lead, err := decodeLead([]byte(payload), createdAt)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}
