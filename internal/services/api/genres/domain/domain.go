// Package domain defines the types and contracts for the genres module
package domain

import (
	"context"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
)

// ServicePort is the genres service contract
type ServicePort interface {
	// GetByID fetches one genre document
	GetByID(ctx context.Context, id uuid.UUID) (*model.Genre, error)

	// List pages genres in index order
	List(ctx context.Context, size, page int) ([]model.Genre, error)
}

// ListParams are the query parameters of the genres list
type ListParams struct {
	PageSize int `query:"page_size" json:"page_size" default:"50" validate:"min=1,max=100" example:"50"`
	PageNum  int `query:"page_number" json:"page_number" default:"1" validate:"min=1" example:"1"`
}

// GenreResponse is the public genre shape
type GenreResponse struct {
	UUID uuid.UUID `json:"uuid" example:"1cacff68-643e-4ddd-8f57-84b62538081a"`
	Name string    `json:"name" example:"Drama"`
}

// GenreResponseFrom projects a genre document into the public shape
func GenreResponseFrom(g *model.Genre) GenreResponse {
	return GenreResponse{UUID: g.ID, Name: g.Name}
}

// GenreResponsesFrom projects a batch. Never nil, lists serialize as []
func GenreResponsesFrom(genres []model.Genre) []GenreResponse {
	out := make([]GenreResponse, 0, len(genres))
	for i := range genres {
		out = append(out, GenreResponseFrom(&genres[i]))
	}
	return out
}
