// Package search is the full-text index port and its Elasticsearch
// adapter. Readers get documents and run DSL queries, the ETL side
// creates indices and bulk-upserts documents keyed by id.
package search

import (
	"context"
	"encoding/json"
)

// Page is 1-based pagination translated to size/from windows.
type Page struct {
	Size   int
	Number int
}

// From is the offset of the first hit for this page.
func (p Page) From() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Doc is a document to upsert, Body replaces any previous version under ID.
type Doc struct {
	ID   string
	Body json.RawMessage
}

// Port is the search backend seam shared by the query services and the
// ETL loader.
type Port interface {
	// Get fetches one document by id. Missing documents come back as a
	// not-found platform error.
	Get(ctx context.Context, index, id string) (json.RawMessage, error)

	// Search runs q against index and returns the matching sources.
	// sort is a field name, "-" prefix flips to descending, "" skips
	// the clause.
	Search(ctx context.Context, index string, q Query, p Page, sort string) ([]json.RawMessage, error)

	// BulkUpsert indexes docs in one bulk call and returns the number
	// of documents accepted.
	BulkUpsert(ctx context.Context, index string, docs []Doc) (int, error)

	// EnsureIndex creates index with the given mapping, succeeding when
	// it already exists.
	EnsureIndex(ctx context.Context, index string, mapping []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// List fetches a page of index with no filter.
func List(ctx context.Context, p Port, index string, pg Page, sort string) ([]json.RawMessage, error) {
	return p.Search(ctx, index, MatchAll(), pg, sort)
}

// SearchByField runs a single-field match query against index.
func SearchByField(ctx context.Context, p Port, index, field, query string, pg Page, sort string) ([]json.RawMessage, error) {
	return p.Search(ctx, index, Match(field, query), pg, sort)
}
