// Package http provides http transport for persons
package http

import (
	stdhttp "net/http"

	phttp "cinedex/internal/platform/net/http"
	"cinedex/internal/platform/net/http/bind"
	filmdom "cinedex/internal/services/api/films/domain"
	"cinedex/internal/services/api/persons/domain"
	svc "cinedex/internal/services/api/persons/service"
)

// filmsSort orders the per-person film lists
const filmsSort = "imdb_rating"

// bounds for the films fetched when composing person shapes
const (
	defaultFilmsSize = 50
	defaultFilmsPage = 1
)

// Register mounts person endpoints on the given router. Person shapes embed
// per-film role sets, so the handlers also take the films service
func Register(r phttp.Router, s svc.Service, films filmdom.ServicePort) {
	h := &handlers{svc: s, films: films}

	phttp.GetQuery[domain.SearchParams](r, "/search", h.search)
	phttp.GetJSON(r, "/{person_id}/films", h.personFilms)
	phttp.GetJSON(r, "/{person_id}", h.get)
}

type handlers struct {
	svc   svc.Service
	films filmdom.ServicePort
}

// swagger:route GET /persons/search Persons personsSearch
// @Summary Person search by name
// @Tags Persons
// @Produce json
// @Param query query string true "person name"
// @Param page_size query int false "page size" default(50)
// @Param page_number query int false "page number" default(1)
// @Success 200 {array} domain.PersonResponse "ok"
// @Router /persons/search [get]
func (h *handlers) search(r *stdhttp.Request, in domain.SearchParams) (any, error) {
	persons, err := h.svc.SearchByName(r.Context(), in.Query, in.PageSize, in.PageNum)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PersonResponse, 0, len(persons))
	for i := range persons {
		films, err := h.films.WithPerson(r.Context(), persons[i].ID, filmsSort, in.PageSize, in.PageNum)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PersonResponseFrom(&persons[i], films))
	}
	return out, nil
}

// swagger:route GET /persons/{person_id} Persons personsGet
// @Summary Person details with films and roles
// @Tags Persons
// @Produce json
// @Param person_id path string true "person id"
// @Success 200 {object} domain.PersonResponse "ok"
// @Failure 404 {object} errors.Wire "not found"
// @Router /persons/{person_id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := bind.UUIDParam(r, "person_id")
	if err != nil {
		return nil, err
	}
	person, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	films, err := h.films.WithPerson(r.Context(), id, filmsSort, defaultFilmsSize, defaultFilmsPage)
	if err != nil {
		return nil, err
	}
	return domain.PersonResponseFrom(person, films), nil
}

// swagger:route GET /persons/{person_id}/films Persons personsFilms
// @Summary Films the person appears in
// @Tags Persons
// @Produce json
// @Param person_id path string true "person id"
// @Success 200 {array} filmdom.FilmItem "ok"
// @Failure 404 {object} errors.Wire "unknown person"
// @Router /persons/{person_id}/films [get]
func (h *handlers) personFilms(r *stdhttp.Request) (any, error) {
	id, err := bind.UUIDParam(r, "person_id")
	if err != nil {
		return nil, err
	}
	// unknown persons 404, persons without films list empty
	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		return nil, err
	}
	films, err := h.films.WithPerson(r.Context(), id, filmsSort, defaultFilmsSize, defaultFilmsPage)
	if err != nil {
		return nil, err
	}
	return filmdom.FilmItemsFrom(films), nil
}
