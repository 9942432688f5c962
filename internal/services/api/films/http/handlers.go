// Package http provides http transport for films
package http

import (
	stdhttp "net/http"

	phttp "cinedex/internal/platform/net/http"
	"cinedex/internal/platform/net/http/bind"
	"cinedex/internal/services/api/films/domain"
	svc "cinedex/internal/services/api/films/service"
)

// Register mounts film endpoints on the given router
func Register(r phttp.Router, s svc.Service) {
	h := &handlers{svc: s}

	// full-text search, registered before the id route
	phttp.GetQuery[domain.SearchParams](r, "/search", h.search)

	// rating-sorted list with optional genre filter
	phttp.GetQuery[domain.ListParams](r, "/", h.list)

	// single film by id
	phttp.GetJSON(r, "/{film_id}", h.get)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /films Films filmsList
// @Summary Films list
// @Tags Films
// @Produce json
// @Param sort query string false "imdb_rating or -imdb_rating"
// @Param genre query string false "genre id filter"
// @Param page_size query int false "page size" default(50)
// @Param page_number query int false "page number" default(1)
// @Success 200 {array} domain.FilmItem "ok"
// @Router /films [get]
func (h *handlers) list(r *stdhttp.Request, in domain.ListParams) (any, error) {
	genreID, err := in.GenreID()
	if err != nil {
		return nil, err
	}
	films, err := h.svc.List(r.Context(), in.Sort, genreID, in.PageSize, in.PageNum)
	if err != nil {
		return nil, err
	}
	return domain.FilmItemsFrom(films), nil
}

// swagger:route GET /films/search Films filmsSearch
// @Summary Full-text film search
// @Tags Films
// @Produce json
// @Param query query string true "search query"
// @Param page_size query int false "page size" default(50)
// @Param page_number query int false "page number" default(1)
// @Success 200 {array} domain.FilmItem "ok"
// @Router /films/search [get]
func (h *handlers) search(r *stdhttp.Request, in domain.SearchParams) (any, error) {
	films, err := h.svc.Search(r.Context(), in.Query, in.PageSize, in.PageNum)
	if err != nil {
		return nil, err
	}
	return domain.FilmItemsFrom(films), nil
}

// swagger:route GET /films/{film_id} Films filmsGet
// @Summary Film details
// @Tags Films
// @Produce json
// @Param film_id path string true "film id"
// @Success 200 {object} domain.FilmDetail "ok"
// @Failure 404 {object} errors.Wire "not found"
// @Router /films/{film_id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := bind.UUIDParam(r, "film_id")
	if err != nil {
		return nil, err
	}
	film, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return domain.FilmDetailFrom(film), nil
}
