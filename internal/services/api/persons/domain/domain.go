// Package domain defines the types and contracts for the persons module
package domain

import (
	"context"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
)

// ServicePort is the persons service contract
type ServicePort interface {
	// GetByID fetches one person document
	GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error)

	// SearchByName runs a name match over persons
	SearchByName(ctx context.Context, name string, size, page int) ([]model.Person, error)
}

// SearchParams are the query parameters of person search
type SearchParams struct {
	Query    string `query:"query" json:"query" validate:"required,min=1" example:"george"`
	PageSize int    `query:"page_size" json:"page_size" default:"50" validate:"min=1,max=100" example:"50"`
	PageNum  int    `query:"page_number" json:"page_number" default:"1" validate:"min=1" example:"1"`
}

// PersonFilm pairs a film id with the roles the person holds on it
type PersonFilm struct {
	UUID  uuid.UUID    `json:"uuid"`
	Roles []model.Role `json:"roles"`
}

// PersonResponse is the public person shape: the person plus their films
// with per-film role sets
type PersonResponse struct {
	UUID  uuid.UUID    `json:"uuid" example:"26e83050-29ef-4163-a99d-b546cac208f8"`
	Name  string       `json:"name" example:"George Lucas"`
	Films []PersonFilm `json:"films"`
}

// PersonResponseFrom composes the public shape from a person and the films
// they appear in
func PersonResponseFrom(p *model.Person, films []model.Film) PersonResponse {
	out := make([]PersonFilm, 0, len(films))
	for i := range films {
		roles := films[i].Roles(p.ID)
		if roles == nil {
			roles = []model.Role{}
		}
		out = append(out, PersonFilm{UUID: films[i].ID, Roles: roles})
	}
	return PersonResponse{UUID: p.ID, Name: p.Name, Films: out}
}
