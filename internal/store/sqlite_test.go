package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-api/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testLead(name string, score int, category model.Category) *model.EnrichedLead {
	return &model.EnrichedLead{
		Lead: model.Lead{
			Name:      name,
			Email:     "contact@" + name + ".example.com",
			Company:   name + " Inc",
			Interests: []string{"crm"},
		},
		CorporateEmail: true,
		Seniority:      model.SeniorityManager,
		IntentSignals:  []string{"demo"},
		EnrichedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:          score,
		Category:       category,
		Explanation:    "Processed in batch without AI. Score: " + fmt.Sprint(score) + ".",
	}
}

func TestSQLite_InsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead("acme", 75, model.CategoryHot)
	require.NoError(t, st.InsertLead(ctx, lead))
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, model.CategoryHot, got.Category)
	assert.Equal(t, []string{"demo"}, got.IntentSignals)
	assert.Equal(t, lead.Explanation, got.Explanation)
	assert.WithinDuration(t, lead.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLite_InsertKeepsExistingID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead("fixed", 10, model.CategoryCold)
	lead.ID = "lead-fixed"
	require.NoError(t, st.InsertLead(ctx, lead))
	assert.Equal(t, "lead-fixed", lead.ID)

	err := st.InsertLead(ctx, lead)
	require.Error(t, err, "duplicate id must fail")
	assert.Contains(t, err.Error(), "sqlite: insert lead lead-fixed")
}

func TestSQLite_GetLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListLeads_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []struct {
		name     string
		score    int
		category model.Category
	}{
		{"a", 90, model.CategoryHot},
		{"b", 50, model.CategoryWarm},
		{"c", 20, model.CategoryCold},
		{"d", 80, model.CategoryHot},
	}
	for i, in := range inputs {
		lead := testLead(in.name, in.score, in.category)
		lead.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, st.InsertLead(ctx, lead))
	}

	all, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d", all[0].Name, "newest first")
	assert.Equal(t, "a", all[3].Name)

	hot, err := st.ListLeads(ctx, LeadFilter{Category: model.CategoryHot})
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, "d", hot[0].Name)
	assert.Equal(t, "a", hot[1].Name)

	scored, err := st.ListLeads(ctx, LeadFilter{MinScore: 50})
	require.NoError(t, err)
	assert.Len(t, scored, 3)

	page, err := st.ListLeads(ctx, LeadFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Name)
	assert.Equal(t, "b", page[1].Name)
}

func TestSQLite_ListLeads_EmptyIsNotNil(t *testing.T) {
	st := newTestSQLiteStore(t)

	leads, err := st.ListLeads(context.Background(), LeadFilter{})
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestSQLite_ConcurrentInserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.InsertLead(ctx, testLead(fmt.Sprintf("lead%d", i), i, model.CategoryCold))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	leads, err := st.ListLeads(ctx, LeadFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, leads, 20)
}

func TestSQLite_ManyConcurrentWriters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	const n = 300
	sem := make(chan struct{}, 8)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []error
	for i := range n {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := st.InsertLead(ctx, testLead(fmt.Sprintf("writer%d", i), i%100, model.CategoryCold)); err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failed)
	leads, err := st.ListLeads(ctx, LeadFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, leads, n)
}

func TestSQLiteDSN(t *testing.T) {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	assert.Equal(t, "file:leads.db?"+pragmas, sqliteDSN("leads.db"))
	assert.Equal(t, "file:/tmp/x/leads.db?"+pragmas, sqliteDSN("/tmp/x/leads.db"))
	assert.Equal(t, "file:leads.db?mode=rwc&"+pragmas, sqliteDSN("file:leads.db?mode=rwc"))
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestLeadFilter_Normalized(t *testing.T) {
	tests := []struct {
		in   LeadFilter
		want LeadFilter
	}{
		{LeadFilter{}, LeadFilter{Limit: 100}},
		{LeadFilter{Limit: 5000}, LeadFilter{Limit: 1000}},
		{LeadFilter{Limit: 10, Offset: -3}, LeadFilter{Limit: 10}},
		{LeadFilter{Category: model.CategoryWarm, MinScore: 40, Limit: 1, Offset: 2},
			LeadFilter{Category: model.CategoryWarm, MinScore: 40, Limit: 1, Offset: 2}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.normalized())
	}
}
