// Package service contains the persons read workflows
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
	"cinedex/internal/services/api/persons/domain"
)

// index is the persons document index
const index = "persons"

// TTL groups the cache lifetimes for person entries
type TTL struct {
	Item time.Duration
	List time.Duration
}

// Service defines the persons service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the persons service
type Svc struct {
	search search.Port
	cache  cache.Cache
	ttl    TTL
}

// New constructs a persons service
func New(sp search.Port, c cache.Cache, ttl TTL) *Svc {
	if sp == nil {
		panic("persons.Service requires a non nil search port")
	}
	if c == nil {
		panic("persons.Service requires a non nil cache")
	}
	return &Svc{search: sp, cache: c, ttl: ttl}
}

// GetByID fetches one person document, read through the cache
func (s *Svc) GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	key := fmt.Sprintf("person:%s", id)
	if b, ok := s.cache.Get(ctx, key); ok {
		var p model.Person
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	raw, err := s.search.Get(ctx, index, id.String())
	if err != nil {
		return nil, err
	}
	var p model.Person
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, perr.Internalf("decode person %s: %v", id, err)
	}

	s.cache.Set(ctx, key, raw, s.ttl.Item)
	return &p, nil
}

// SearchByName runs a name match over persons, read through the cache
func (s *Svc) SearchByName(ctx context.Context, name string, size, page int) ([]model.Person, error) {
	key := fmt.Sprintf("persons:search:%s:%d:%d", name, size, page)
	if b, ok := s.cache.Get(ctx, key); ok {
		var persons []model.Person
		if err := json.Unmarshal(b, &persons); err == nil {
			return persons, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	hits, err := search.SearchByField(ctx, s.search, index, "name", name, search.Page{Size: size, Number: page}, "")
	if err != nil {
		return nil, err
	}
	persons := make([]model.Person, 0, len(hits))
	for _, h := range hits {
		var p model.Person
		if err := json.Unmarshal(h, &p); err != nil {
			return nil, perr.Internalf("decode person hit: %v", err)
		}
		persons = append(persons, p)
	}

	if b, err := json.Marshal(persons); err == nil {
		s.cache.Set(ctx, key, b, s.ttl.List)
	}
	return persons, nil
}
