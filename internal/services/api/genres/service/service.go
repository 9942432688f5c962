// Package service contains the genres read workflows
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
	"cinedex/internal/services/api/genres/domain"
)

// index is the genres document index
const index = "genres"

// TTL groups the cache lifetimes for genre entries
type TTL struct {
	Item time.Duration
	List time.Duration
}

// Service defines the genres service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the genres service
type Svc struct {
	search search.Port
	cache  cache.Cache
	ttl    TTL
}

// New constructs a genres service
func New(sp search.Port, c cache.Cache, ttl TTL) *Svc {
	if sp == nil {
		panic("genres.Service requires a non nil search port")
	}
	if c == nil {
		panic("genres.Service requires a non nil cache")
	}
	return &Svc{search: sp, cache: c, ttl: ttl}
}

// GetByID fetches one genre document, read through the cache
func (s *Svc) GetByID(ctx context.Context, id uuid.UUID) (*model.Genre, error) {
	key := fmt.Sprintf("genre:%s", id)
	if b, ok := s.cache.Get(ctx, key); ok {
		var g model.Genre
		if err := json.Unmarshal(b, &g); err == nil {
			return &g, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	raw, err := s.search.Get(ctx, index, id.String())
	if err != nil {
		return nil, err
	}
	var g model.Genre
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, perr.Internalf("decode genre %s: %v", id, err)
	}

	s.cache.Set(ctx, key, raw, s.ttl.Item)
	return &g, nil
}

// List pages genres in index order, read through the cache
func (s *Svc) List(ctx context.Context, size, page int) ([]model.Genre, error) {
	key := fmt.Sprintf("genres:list:%d:%d", size, page)
	if b, ok := s.cache.Get(ctx, key); ok {
		var genres []model.Genre
		if err := json.Unmarshal(b, &genres); err == nil {
			return genres, nil
		}
		logger.C(ctx).Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	hits, err := search.List(ctx, s.search, index, search.Page{Size: size, Number: page}, "")
	if err != nil {
		return nil, err
	}
	genres := make([]model.Genre, 0, len(hits))
	for _, h := range hits {
		var g model.Genre
		if err := json.Unmarshal(h, &g); err != nil {
			return nil, perr.Internalf("decode genre hit: %v", err)
		}
		genres = append(genres, g)
	}

	if b, err := json.Marshal(genres); err == nil {
		s.cache.Set(ctx, key, b, s.ttl.List)
	}
	return genres, nil
}
