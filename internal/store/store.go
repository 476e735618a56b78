// Package store persists enriched leads in Postgres or SQLite.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/model"
)

// ErrNotFound is returned by GetLead when no lead has the given ID.
var ErrNotFound = eris.New("lead not found")

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Category model.Category `json:"category,omitempty"`
	MinScore int            `json:"min_score,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// normalized clamps Limit to (0, 1000] with a default of 100 and drops
// negative offsets.
func (f LeadFilter) normalized() LeadFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// LeadStore defines the persistence interface for scored leads.
// Implementations must be safe for concurrent InsertLead calls.
type LeadStore interface {
	// InsertLead persists one lead. It assigns ID and CreatedAt when unset.
	InsertLead(ctx context.Context, lead *model.EnrichedLead) error
	// ListLeads returns leads newest first.
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error)
	GetLead(ctx context.Context, id string) (*model.EnrichedLead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
