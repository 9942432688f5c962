package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"

	"cinedex/internal/platform/config"
	"cinedex/internal/platform/logger"
	"cinedex/internal/platform/retry"
	"cinedex/internal/platform/search"
	"cinedex/internal/platform/store"

	"cinedex/internal/services/etl"
	"cinedex/internal/services/etl/loader"
	"cinedex/internal/services/etl/producer"
	"cinedex/internal/services/etl/repo"
	"cinedex/internal/services/etl/state"
)

func main() {
	root := config.New()

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// source side: the content schema in postgres
	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         postgresURL(root),
				MaxConns:    int32(root.MayInt("PG_MAX_CONNS", 4)),
				SlowQueryMs: root.MayInt("PG_SLOW_MS", 500),
				LogSQL:      root.MayBool("PG_LOG_SQL", false),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		l.Panic().Err(err).Msg("source database not ready")
	}

	// sink side: the search indices
	es, err := search.NewElastic(search.ElasticConfig{
		URL: elasticURL(root),
	})
	if err != nil {
		l.Panic().Err(err).Msg("search client init failed")
	}

	// per-stream watermarks survive restarts through this file
	marks, err := state.Open(root.MayString("ETL_STATE_PATH", "data/etl_state.json"))
	if err != nil {
		l.Panic().Err(err).Msg("state open failed")
	}

	prod := producer.New(
		repo.New(st.PG),
		marks,
		root.MayInt("ETL_BATCH_LIMIT", producer.DefaultBatchLimit),
	)

	runner := etl.New(etl.Options{
		Streams:      prod.Streams(),
		Sink:         loader.New(es, retry.DefaultPolicy()),
		State:        marks,
		IdleInterval: root.MayDuration("ETL_IDLE_INTERVAL", etl.DefaultIdleInterval),
	})

	if err := runner.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("etl stopped")
	}
	l.Info().Msg("etl: stopped cleanly")
}

// postgresURL assembles a DSN from the POSTGRES_* parts
func postgresURL(cfg config.Conf) string {
	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			cfg.MustString("POSTGRES_USER"),
			cfg.MustString("POSTGRES_PASSWORD"),
		),
		Host: fmt.Sprintf("%s:%s",
			cfg.MayString("POSTGRES_HOST", "127.0.0.1"),
			cfg.MayString("POSTGRES_PORT", "5432"),
		),
		Path:     "/" + cfg.MustString("POSTGRES_DB"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// elasticURL prefers a full ES_URL and falls back to host/port parts
func elasticURL(cfg config.Conf) string {
	if u := cfg.MayString("ES_URL", ""); u != "" {
		return u
	}
	return fmt.Sprintf("http://%s:%s",
		cfg.MayString("ES_HOST", "127.0.0.1"),
		cfg.MayString("ES_PORT", "9200"),
	)
}
