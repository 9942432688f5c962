// Package service contains the films read workflows: cache-aside reads
// over the search port
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
	"cinedex/internal/platform/cache"
	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"
	"cinedex/internal/platform/search"
	"cinedex/internal/services/api/films/domain"
)

// index is the films document index
const index = "movies"

// searchFields are the multi-match targets, title boosted over the rest
var searchFields = []string{
	"title^3",
	"description",
	"genres_names",
	"actors_names",
	"directors_names",
	"writers_names",
}

// TTL groups the cache lifetimes for film entries
type TTL struct {
	Item time.Duration
	List time.Duration
}

// Service defines the films service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the films service
type Svc struct {
	search search.Port
	cache  cache.Cache
	ttl    TTL
}

// New constructs a films service
func New(sp search.Port, c cache.Cache, ttl TTL) *Svc {
	if sp == nil {
		panic("films.Service requires a non nil search port")
	}
	if c == nil {
		panic("films.Service requires a non nil cache")
	}
	return &Svc{search: sp, cache: c, ttl: ttl}
}

// GetByID fetches one film document, read through the cache
func (s *Svc) GetByID(ctx context.Context, id uuid.UUID) (*model.Film, error) {
	key := fmt.Sprintf("film:%s", id)
	if b, ok := s.cache.Get(ctx, key); ok {
		var f model.Film
		if err := json.Unmarshal(b, &f); err == nil {
			return &f, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	raw, err := s.search.Get(ctx, index, id.String())
	if err != nil {
		return nil, err
	}
	var f model.Film
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, perr.Internalf("decode film %s: %v", id, err)
	}

	s.cache.Set(ctx, key, raw, s.ttl.Item)
	return &f, nil
}

// Search runs relevance-ranked full-text search over films
func (s *Svc) Search(ctx context.Context, query string, size, page int) ([]model.Film, error) {
	key := fmt.Sprintf("film:search:%s:%d:%d", query, size, page)
	q := search.MultiMatch(query, searchFields, "AUTO")
	return s.films(ctx, key, q, search.Page{Size: size, Number: page}, "")
}

// List pages films ordered by sort, optionally narrowed to one genre
func (s *Svc) List(ctx context.Context, sort string, genreID *uuid.UUID, size, page int) ([]model.Film, error) {
	// "None" marks the unfiltered list in the key schema
	genreKey := "None"
	q := search.MatchAll()
	if genreID != nil {
		genreKey = genreID.String()
		q = search.Nested("genres", search.Term("genres.id", genreKey))
	}
	key := fmt.Sprintf("films:list:%s:%s:%d:%d", sort, genreKey, size, page)
	return s.films(ctx, key, q, search.Page{Size: size, Number: page}, sort)
}

// WithPerson pages films where the person holds any credit role
func (s *Svc) WithPerson(ctx context.Context, personID uuid.UUID, sort string, size, page int) ([]model.Film, error) {
	key := fmt.Sprintf("person:%s:roles", personID)
	pid := personID.String()
	q := search.BoolShould(
		search.Nested("actors", search.Term("actors.id", pid)),
		search.Nested("directors", search.Term("directors.id", pid)),
		search.Nested("writers", search.Term("writers.id", pid)),
	)
	return s.films(ctx, key, q, search.Page{Size: size, Number: page}, sort)
}

// films is the shared cache-aside read for list-shaped queries. The cached
// value is the JSON array of documents under the given key
func (s *Svc) films(ctx context.Context, key string, q search.Query, p search.Page, sort string) ([]model.Film, error) {
	if b, ok := s.cache.Get(ctx, key); ok {
		var films []model.Film
		if err := json.Unmarshal(b, &films); err == nil {
			return films, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	hits, err := s.search.Search(ctx, index, q, p, sort)
	if err != nil {
		return nil, err
	}
	films := make([]model.Film, 0, len(hits))
	for _, h := range hits {
		var f model.Film
		if err := json.Unmarshal(h, &f); err != nil {
			return nil, perr.Internalf("decode film hit: %v", err)
		}
		films = append(films, f)
	}

	if b, err := json.Marshal(films); err == nil {
		s.cache.Set(ctx, key, b, s.ttl.List)
	}
	return films, nil
}
