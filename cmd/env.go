package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-api/internal/ads"
	"github.com/sells-group/lead-api/internal/classify"
	"github.com/sells-group/lead-api/internal/enrich"
	"github.com/sells-group/lead-api/internal/pipeline"
	"github.com/sells-group/lead-api/internal/resilience"
	"github.com/sells-group/lead-api/internal/scorer"
	"github.com/sells-group/lead-api/internal/store"
	anthropicpkg "github.com/sells-group/lead-api/pkg/anthropic"
)

const defaultSQLitePath = "leads.db"

// appEnv holds the store and the services built on it.
type appEnv struct {
	Store    store.LeadStore
	Pipeline *pipeline.Pipeline
	Planner  *ads.Planner
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store and waits for it to answer a ping.
func initStore(ctx context.Context) (store.LeadStore, error) {
	var (
		st  store.LeadStore
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	retry := resilience.DefaultRetryConfig().WithMaxAttempts(5)
	retry.OnRetry = resilience.RetryLogger(cfg.Store.Driver, "ping")
	if err := resilience.Do(ctx, retry, st.Ping); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "ping store")
	}
	return st, nil
}

// initExplainer returns the Claude-backed explainer, or nil when no API key
// is configured.
func initExplainer() pipeline.Explainer {
	if cfg.Anthropic.Key == "" {
		zap.L().Debug("LEADS_ANTHROPIC_KEY not set, AI explanations disabled")
		return nil
	}
	return classify.New(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
}

// initEnv opens and migrates the store and builds the pipeline and ad
// planner. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	sc, err := scorer.New(cfg.Scoring)
	if err != nil {
		return nil, eris.Wrap(err, "init scorer")
	}

	planner, err := ads.NewPlanner(cfg.Ads.TemplatesPath)
	if err != nil {
		return nil, eris.Wrap(err, "init ad planner")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	p := pipeline.New(enrich.New(), sc, initExplainer(), st, pipeline.Options{
		MaxWorkers:  cfg.Bulk.MaxWorkers,
		ItemTimeout: time.Duration(cfg.Bulk.ItemTimeoutSecs) * time.Second,
	})

	return &appEnv{Store: st, Pipeline: p, Planner: planner}, nil
}
