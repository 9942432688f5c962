// @title         Cinedex API
// @version       0.1.0
// @description   Read only endpoints for films, genres and persons

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"cinedex/internal/platform/cache"
	"cinedex/internal/platform/config"
	"cinedex/internal/platform/logger"
	phttp "cinedex/internal/platform/net/http"
	"cinedex/internal/platform/search"

	"cinedex/internal/services/api"
)

func main() {
	root := config.New()

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// search backend the whole read path hangs off
	es, err := search.NewElastic(search.ElasticConfig{
		URL: elasticURL(root),
	})
	if err != nil {
		l.Panic().Err(err).Msg("search client init failed")
	}

	// read-through cache in front of it
	rc := cache.NewRedis(cache.RedisConfig{
		Addr: fmt.Sprintf("%s:%s",
			root.MayString("REDIS_HOST", "127.0.0.1"),
			root.MayString("REDIS_PORT", "6379"),
		),
	})
	defer func() {
		if err := rc.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close cache client")
		}
	}()

	// http server (reads API_ADDR)
	srv := phttp.NewServer(root)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Cache:          rc,
			Search:         es,
			EnableSwagger:  root.MayBool("SWAGGER", true),
			EnableProfiler: root.MayBool("PROFILER", true),
		},
	)

	// drain in-flight requests on SIGINT/SIGTERM
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Str("addr", srv.Addr()).Msg("api: stopped cleanly")
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
