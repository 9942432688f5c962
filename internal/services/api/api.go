// Package api wires the catalog query modules onto the HTTP router
package api

import (
	"compress/flate"
	"time"

	"cinedex/internal/platform/cache"
	"cinedex/internal/platform/config"
	phttp "cinedex/internal/platform/net/http"
	"cinedex/internal/platform/net/middleware"
	"cinedex/internal/platform/search"

	filmshttp "cinedex/internal/services/api/films/http"
	filmssvc "cinedex/internal/services/api/films/service"
	genreshttp "cinedex/internal/services/api/genres/http"
	genressvc "cinedex/internal/services/api/genres/service"
	metahttp "cinedex/internal/services/api/meta/http"
	personshttp "cinedex/internal/services/api/persons/http"
	personssvc "cinedex/internal/services/api/persons/service"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Cache          cache.Cache
	Search         search.Port
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the query API onto the given router
func Mount(r phttp.Router, opt Options) {
	itemTTL := opt.Config.MayDuration("CACHE_ITEM_TTL", 5*time.Minute)
	listTTL := opt.Config.MayDuration("CACHE_LIST_TTL", time.Minute)

	films := filmssvc.New(opt.Search, opt.Cache, filmssvc.TTL{Item: itemTTL, List: listTTL})
	genres := genressvc.New(opt.Search, opt.Cache, genressvc.TTL{Item: itemTTL, List: listTTL})
	persons := personssvc.New(opt.Search, opt.Cache, personssvc.TTL{Item: itemTTL, List: listTTL})

	// versioned API with a common middleware stack
	r.Route("/api/v1", func(api phttp.Router) {
		api.Use(
			// tracing / correlation
			middleware.RequestID(),
			middleware.RealIP(),

			// safety
			middleware.RecoverJSON,

			// cache / freshness
			middleware.NoCache(),

			// observability
			middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: time.Second}),

			// cross-origin (tweak config in main if needed)
			middleware.CORS(middleware.CORSOptions{}),
			middleware.Compress(flate.BestSpeed),
			middleware.Timeout(30*time.Second),
		)

		api.Route("/films", func(rr phttp.Router) { filmshttp.Register(rr, films) })
		api.Route("/genres", func(rr phttp.Router) { genreshttp.Register(rr, genres) })
		api.Route("/persons", func(rr phttp.Router) { personshttp.Register(rr, persons, films) })
	})

	// probes and docs live at the root, outside the versioned prefix
	metahttp.Register(r, metahttp.Deps{
		ServiceName: "cinedex-api",
		StartedAt:   time.Now(),
		Search:      opt.Search,
		Cache:       opt.Cache,
	})
	phttp.MountSwagger(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
}
