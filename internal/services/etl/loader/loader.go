// Package loader owns the index side of the pipeline: it creates the
// catalog indices from embedded mappings and pushes producer batches
// through confirmed bulk upserts. Transient backend failures are retried
// under the shared backoff policy; the caller only sees final outcomes.
package loader

import (
	"context"
	_ "embed"

	"cinedex/internal/platform/retry"
	"cinedex/internal/platform/search"
)

//go:embed mappings/movies.json
var moviesMapping []byte

//go:embed mappings/genres.json
var genresMapping []byte

//go:embed mappings/persons.json
var personsMapping []byte

// indices lists every catalog index with its mapping, in creation order.
var indices = []struct {
	name    string
	mapping []byte
}{
	{"movies", moviesMapping},
	{"genres", genresMapping},
	{"persons", personsMapping},
}

// Loader writes documents into the search backend.
type Loader struct {
	port   search.Port
	policy retry.Policy
}

// New wires a loader over the search port.
func New(port search.Port, policy retry.Policy) *Loader {
	if port == nil {
		panic("loader requires a non nil search port")
	}
	return &Loader{port: port, policy: policy}
}

// EnsureIndices creates the movies, genres and persons indices. Indices
// that already exist count as created.
func (l *Loader) EnsureIndices(ctx context.Context) error {
	for _, ix := range indices {
		err := retry.Do(ctx, "ensure index "+ix.name, l.policy, func() error {
			return l.port.EnsureIndex(ctx, ix.name, ix.mapping)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Load bulk-upserts docs into index and returns the accepted count.
// Empty batches are a no-op so watermark-only commits stay cheap.
func (l *Loader) Load(ctx context.Context, index string, docs []search.Doc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	return retry.DoValue(ctx, "bulk load "+index, l.policy, func() (int, error) {
		return l.port.BulkUpsert(ctx, index, docs)
	})
}
