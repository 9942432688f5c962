// Package http hosts server adapters. Profiler mounts pprof endpoints when enabled
package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler mounts pprof under prefix, e.g. "/debug". Off by default so
// production catalogs only expose it when the env flag asks for it
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	// strip the prefix before handing off so the profiler mux sees its own paths
	h := stdhttp.StripPrefix(prefix, mw.Profiler())

	r.Get(prefix, h.ServeHTTP)
	r.Get(prefix+"/*", h.ServeHTTP)
}
