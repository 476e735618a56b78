package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-api/internal/model"
)

// Outcome is the result of processing the lead at Index. Exactly one of
// Lead and Err is set.
type Outcome struct {
	Index int
	Lead  *model.EnrichedLead
	Err   error
}

// workerCount returns min(limit, n) and at least 1.
func workerCount(limit, n int) int {
	w := min(limit, n)
	if w < 1 {
		w = 1
	}
	return w
}

// BulkImport processes every lead concurrently on at most Options.MaxWorkers
// goroutines and returns one report entry per input position. Item failures
// never abort the batch; the returned error is non-nil only if the report's
// counters disagree with len(leads).
func (p *Pipeline) BulkImport(ctx context.Context, leads []model.Lead, useAI bool) (*model.ImportReport, error) {
	report := model.NewImportReport()
	n := len(leads)
	if n == 0 {
		return report, nil
	}

	workers := workerCount(p.opts.MaxWorkers, n)
	log := zap.L().With(zap.Int("leads", n), zap.Int("workers", workers), zap.Bool("use_ai", useAI))
	log.Info("bulk import: starting")
	start := time.Now()

	// Buffered to n so workers never block on a slow collector.
	results := make(chan Outcome, n)

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for i, lead := range leads {
			g.Go(func() error {
				results <- p.processItem(ctx, i, lead, useAI)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for out := range results {
		if out.Err != nil {
			report.RecordFailure(out.Index, out.Err.Error())
			log.Warn("bulk import: item failed", zap.Int("index", out.Index), zap.Error(out.Err))
			continue
		}
		report.RecordSuccess()
	}

	log.Info("bulk import: complete",
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !report.Balanced(n) {
		return report, eris.Errorf("pipeline: unbalanced import report (inputs=%d processed=%d success=%d failed=%d errors=%d)",
			n, report.Processed, report.Success, report.Failed, len(report.Errors))
	}
	return report, nil
}

// processItem always returns an Outcome for index, converting panics and
// cancellation into failures.
func (p *Pipeline) processItem(ctx context.Context, index int, lead model.Lead, useAI bool) (out Outcome) {
	out.Index = index
	defer func() {
		if r := recover(); r != nil {
			out.Lead = nil
			out.Err = eris.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = eris.Wrap(err, "pipeline: import cancelled")
		return out
	}

	if p.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ItemTimeout)
		defer cancel()
	}

	out.Lead, out.Err = p.Process(ctx, lead, useAI)
	return out
}
