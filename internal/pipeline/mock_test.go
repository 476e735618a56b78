package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-api/internal/model"
)

// --- Enricher Mock ---

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(lead model.Lead) (*model.EnrichedLead, error) {
	args := m.Called(lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnrichedLead), args.Error(1)
}

// --- Scorer Mock ---

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Score(lead *model.EnrichedLead) (int, error) {
	args := m.Called(lead)
	return args.Int(0), args.Error(1)
}

func (m *mockScorer) Category(score int) model.Category {
	args := m.Called(score)
	return args.Get(0).(model.Category)
}

// --- Explainer Mock ---

type mockExplainer struct {
	mock.Mock
}

func (m *mockExplainer) Explain(ctx context.Context, lead *model.EnrichedLead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InsertLead(ctx context.Context, lead *model.EnrichedLead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}
