// Package pipeline runs leads through enrich, score, explain and persist,
// one at a time or as a bounded concurrent bulk import.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/classify"
	"github.com/sells-group/lead-api/internal/model"
)

// Stage names used in StageError.
const (
	StageEnrich   = "enrich"
	StageScore    = "score"
	StageClassify = "classify"
	StagePersist  = "persist"
)

// Enricher derives fields from a raw lead.
type Enricher interface {
	Enrich(lead model.Lead) (*model.EnrichedLead, error)
}

// Scorer scores an enriched lead and maps scores to categories.
type Scorer interface {
	Score(lead *model.EnrichedLead) (int, error)
	Category(score int) model.Category
}

// Explainer produces a textual explanation for a scored lead.
type Explainer interface {
	Explain(ctx context.Context, lead *model.EnrichedLead) (string, error)
}

// Store persists processed leads. InsertLead is called concurrently.
type Store interface {
	InsertLead(ctx context.Context, lead *model.EnrichedLead) error
}

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options tunes bulk imports.
type Options struct {
	// MaxWorkers caps concurrent items. Values < 1 mean 1.
	MaxWorkers int
	// ItemTimeout bounds each item. Zero disables the limit.
	ItemTimeout time.Duration
}

// Pipeline wires the per-lead collaborators. It holds no per-call state and
// is safe for concurrent use.
type Pipeline struct {
	enricher  Enricher
	scorer    Scorer
	explainer Explainer
	store     Store
	opts      Options
}

// New creates a Pipeline. explainer may be nil, in which case AI requests
// fail at the classify stage.
func New(enricher Enricher, scorer Scorer, explainer Explainer, st Store, opts Options) *Pipeline {
	return &Pipeline{
		enricher:  enricher,
		scorer:    scorer,
		explainer: explainer,
		store:     st,
		opts:      opts,
	}
}

// Process runs one lead through every stage. When useAI is false the
// explanation is the deterministic batch fallback. The returned error is a
// *StageError.
func (p *Pipeline) Process(ctx context.Context, lead model.Lead, useAI bool) (*model.EnrichedLead, error) {
	enriched, err := p.enricher.Enrich(lead)
	if err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}

	score, err := p.scorer.Score(enriched)
	if err != nil {
		return nil, &StageError{Stage: StageScore, Err: err}
	}
	enriched.Score = score
	enriched.Category = p.scorer.Category(score)

	if useAI {
		if p.explainer == nil {
			return nil, &StageError{Stage: StageClassify, Err: eris.New("pipeline: AI classifier not configured")}
		}
		explanation, err := p.explainer.Explain(ctx, enriched)
		if err != nil {
			return nil, &StageError{Stage: StageClassify, Err: err}
		}
		enriched.Explanation = explanation
	} else {
		enriched.Explanation = classify.Fallback(score)
	}

	if err := p.store.InsertLead(ctx, enriched); err != nil {
		return nil, &StageError{Stage: StagePersist, Err: err}
	}
	return enriched, nil
}
