// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"cinedex/internal/core/version"
	phttp "cinedex/internal/platform/net/http"
)

// Pinger is satisfied by backends that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Search      Pinger
	Cache       Pinger
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d}

	phttp.GetJSON(r, "/health", h.health)
	// ready picks its own status code, so it bypasses the
	// 200-on-success sugar
	r.Get("/ready", phttp.Handle(h.ready))
	phttp.GetJSON(r, "/version", h.version)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"cinedex-api"`
	Started string `json:"started"  example:"2026-08-01T13:00:00Z"`
	Now     string `json:"now"      example:"2026-08-01T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"search"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:9200 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-08-01T13:05:00Z"`
}

// swagger:route GET /health Meta metaHealth
// @Summary Liveness check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /ready Meta metaReady
// @Summary Readiness probe with backend checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Failure 503 {object} ReadyResponse "a backend check failed"
// @Router /ready [get]
func (h *handlers) ready(r *http.Request) phttp.Response {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, p Pinger) ReadyCheck {
		if p == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if err := p.Ping(ctx); err != nil {
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}

	searchCheck := check("search", h.deps.Search)
	cacheCheck := check("cache", h.deps.Cache)

	overall := "ok"
	if searchCheck.Status != "ok" || cacheCheck.Status != "ok" {
		overall = "degraded"
		if searchCheck.Status == "fail" || cacheCheck.Status == "fail" {
			overall = "fail"
		}
	}

	status := http.StatusOK
	if overall != "ok" {
		status = http.StatusServiceUnavailable
	}
	return phttp.Response{
		Status: status,
		Body: ReadyResponse{
			Status: overall,
			Checks: []ReadyCheck{searchCheck, cacheCheck},
			Now:    time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// swagger:route GET /version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}
