// Package http provides http transport for genres
package http

import (
	stdhttp "net/http"

	phttp "cinedex/internal/platform/net/http"
	"cinedex/internal/platform/net/http/bind"
	"cinedex/internal/services/api/genres/domain"
	svc "cinedex/internal/services/api/genres/service"
)

// Register mounts genre endpoints on the given router
func Register(r phttp.Router, s svc.Service) {
	h := &handlers{svc: s}

	phttp.GetQuery[domain.ListParams](r, "/", h.list)
	phttp.GetJSON(r, "/{genre_id}", h.get)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /genres Genres genresList
// @Summary Genres list
// @Tags Genres
// @Produce json
// @Param page_size query int false "page size" default(50)
// @Param page_number query int false "page number" default(1)
// @Success 200 {array} domain.GenreResponse "ok"
// @Router /genres [get]
func (h *handlers) list(r *stdhttp.Request, in domain.ListParams) (any, error) {
	genres, err := h.svc.List(r.Context(), in.PageSize, in.PageNum)
	if err != nil {
		return nil, err
	}
	return domain.GenreResponsesFrom(genres), nil
}

// swagger:route GET /genres/{genre_id} Genres genresGet
// @Summary Genre details
// @Tags Genres
// @Produce json
// @Param genre_id path string true "genre id"
// @Success 200 {object} domain.GenreResponse "ok"
// @Failure 404 {object} errors.Wire "not found"
// @Router /genres/{genre_id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := bind.UUIDParam(r, "genre_id")
	if err != nil {
		return nil, err
	}
	genre, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return domain.GenreResponseFrom(genre), nil
}
