// Package domain defines the types and contracts for the films module
package domain

import (
	"context"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
)

// ServicePort is the films service contract
type ServicePort interface {
	// GetByID fetches one film document
	GetByID(ctx context.Context, id uuid.UUID) (*model.Film, error)

	// Search runs relevance-ranked full-text search over films
	Search(ctx context.Context, query string, size, page int) ([]model.Film, error)

	// List pages films ordered by sort, optionally narrowed to one genre
	List(ctx context.Context, sort string, genreID *uuid.UUID, size, page int) ([]model.Film, error)

	// WithPerson pages films where the person holds any credit role
	WithPerson(ctx context.Context, personID uuid.UUID, sort string, size, page int) ([]model.Film, error)
}
