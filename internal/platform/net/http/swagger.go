package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// docJSON is the OpenAPI document served to the UI. The read surface is
// small enough to keep by hand, so no generator step is wired in.
const docJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Cinedex Query API", "version": "1.0.0"},
  "servers": [{"url": "/"}],
  "paths": {
    "/api/v1/films/": {"get": {"tags": ["films"], "summary": "List films, optionally filtered by genre and sorted by rating"}},
    "/api/v1/films/search": {"get": {"tags": ["films"], "summary": "Full-text film search"}},
    "/api/v1/films/{film_id}": {"get": {"tags": ["films"], "summary": "Film details by id"}},
    "/api/v1/genres/": {"get": {"tags": ["genres"], "summary": "List genres"}},
    "/api/v1/genres/{genre_id}": {"get": {"tags": ["genres"], "summary": "Genre by id"}},
    "/api/v1/persons/search": {"get": {"tags": ["persons"], "summary": "Person search by name"}},
    "/api/v1/persons/{person_id}": {"get": {"tags": ["persons"], "summary": "Person with film participations"}},
    "/api/v1/persons/{person_id}/films": {"get": {"tags": ["persons"], "summary": "Films a person participated in"}}
  }
}`

// MountSwagger mounts the docs UI and its JSON spec if enabled by caller
func MountSwagger(r Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/docs/index.html", http.StatusPermanentRedirect)
	})
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(docJSON))
	})
	r.Handle("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))
}
