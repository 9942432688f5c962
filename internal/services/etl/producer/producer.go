// Package producer turns watermark-tracked source changes into search
// documents. Five streams share one selection algorithm: pick rows with
// modified strictly after the stream's watermark, fan join-table changes
// out to the films they touch, hydrate, and merge rows into documents.
//
// A watermark only ever advances past timestamps whose rows were all
// observed. When the batch limit cuts a run of rows sharing one timestamp,
// the incomplete tail is dropped and reselected next tick; when the whole
// batch is one such run, the cluster is refetched in full so the stream
// cannot stall on it.
package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/search"
	"cinedex/internal/services/etl/repo"
)

// Index names owned by the pipeline.
const (
	indexMovies  = "movies"
	indexGenres  = "genres"
	indexPersons = "persons"
)

// State keys, one watermark per stream. Streams polling the same table
// keep separate keys so neither starves the other.
const (
	StateKeyFilms          = "film_work_proceed_date_time"
	StateKeyFilmsByGenre   = "genre_proceed_date_time"
	StateKeyFilmsByPerson  = "person_proceed_date_time"
	StateKeyGenreEntities  = "genre_entities_proceed_date_time"
	StateKeyPersonEntities = "person_entities_proceed_date_time"
)

// DefaultBatchLimit caps one change-selection query.
const DefaultBatchLimit = 100

// Source is the slice of the ETL repo the producer consumes.
type Source interface {
	ModifiedRows(ctx context.Context, table repo.Table, after time.Time, limit int) ([]repo.ModifiedRow, error)
	ModifiedRowsAt(ctx context.Context, table repo.Table, at time.Time) ([]repo.ModifiedRow, error)
	FilmIDsByGenres(ctx context.Context, genreIDs []uuid.UUID) ([]uuid.UUID, error)
	FilmIDsByPersons(ctx context.Context, personIDs []uuid.UUID) ([]uuid.UUID, error)
	FilmRows(ctx context.Context, filmIDs []uuid.UUID) ([]repo.FilmRow, error)
	GenresByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Genre, error)
	PersonsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Person, error)
}

// Watermarks reads persisted stream positions. Absent keys are the zero
// time, which selects everything.
type Watermarks interface {
	GetTime(key string) time.Time
}

// Batch is one unit of pipeline work. Watermark is the position the stream
// may persist once every doc is confirmed loaded; the zero time means the
// selection saw nothing and there is nothing to commit.
type Batch struct {
	Docs      []search.Doc
	Watermark time.Time
}

// Stream is one incremental feed into a single index.
type Stream struct {
	Name     string
	Index    string
	StateKey string
	Produce  func(context.Context) (Batch, error)
}

// Producer builds the streams over a source database and watermark store.
type Producer struct {
	src   Source
	marks Watermarks
	limit int
}

// New wires a producer. limit <= 0 falls back to DefaultBatchLimit.
func New(src Source, marks Watermarks, limit int) *Producer {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return &Producer{src: src, marks: marks, limit: limit}
}

// Streams returns the five feeds in their tick order.
func (p *Producer) Streams() []Stream {
	return []Stream{
		{Name: "films", Index: indexMovies, StateKey: StateKeyFilms, Produce: p.filmsBySelf},
		{Name: "films-by-genre", Index: indexMovies, StateKey: StateKeyFilmsByGenre, Produce: p.filmsByGenre},
		{Name: "films-by-person", Index: indexMovies, StateKey: StateKeyFilmsByPerson, Produce: p.filmsByPerson},
		{Name: "genres", Index: indexGenres, StateKey: StateKeyGenreEntities, Produce: p.genreEntities},
		{Name: "persons", Index: indexPersons, StateKey: StateKeyPersonEntities, Produce: p.personEntities},
	}
}

func (p *Producer) filmsBySelf(ctx context.Context) (Batch, error) {
	rows, mark, err := p.changes(ctx, repo.TableFilmWork, StateKeyFilms)
	if err != nil || len(rows) == 0 {
		return Batch{}, err
	}
	docs, err := p.filmDocs(ctx, modifiedIDs(rows))
	if err != nil {
		return Batch{}, err
	}
	return Batch{Docs: docs, Watermark: mark}, nil
}

func (p *Producer) filmsByGenre(ctx context.Context) (Batch, error) {
	rows, mark, err := p.changes(ctx, repo.TableGenre, StateKeyFilmsByGenre)
	if err != nil || len(rows) == 0 {
		return Batch{}, err
	}
	filmIDs, err := p.src.FilmIDsByGenres(ctx, modifiedIDs(rows))
	if err != nil {
		return Batch{}, err
	}
	docs, err := p.filmDocs(ctx, filmIDs)
	if err != nil {
		return Batch{}, err
	}
	// an empty fan-out still advances the watermark
	return Batch{Docs: docs, Watermark: mark}, nil
}

func (p *Producer) filmsByPerson(ctx context.Context) (Batch, error) {
	rows, mark, err := p.changes(ctx, repo.TablePerson, StateKeyFilmsByPerson)
	if err != nil || len(rows) == 0 {
		return Batch{}, err
	}
	filmIDs, err := p.src.FilmIDsByPersons(ctx, modifiedIDs(rows))
	if err != nil {
		return Batch{}, err
	}
	docs, err := p.filmDocs(ctx, filmIDs)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Docs: docs, Watermark: mark}, nil
}

func (p *Producer) genreEntities(ctx context.Context) (Batch, error) {
	rows, mark, err := p.changes(ctx, repo.TableGenre, StateKeyGenreEntities)
	if err != nil || len(rows) == 0 {
		return Batch{}, err
	}
	genres, err := p.src.GenresByIDs(ctx, modifiedIDs(rows))
	if err != nil {
		return Batch{}, err
	}
	docs := make([]search.Doc, 0, len(genres))
	for _, g := range genres {
		doc, err := marshalDoc(g.ID, g)
		if err != nil {
			return Batch{}, err
		}
		docs = append(docs, doc)
	}
	return Batch{Docs: docs, Watermark: mark}, nil
}

func (p *Producer) personEntities(ctx context.Context) (Batch, error) {
	rows, mark, err := p.changes(ctx, repo.TablePerson, StateKeyPersonEntities)
	if err != nil || len(rows) == 0 {
		return Batch{}, err
	}
	persons, err := p.src.PersonsByIDs(ctx, modifiedIDs(rows))
	if err != nil {
		return Batch{}, err
	}
	docs := make([]search.Doc, 0, len(persons))
	for _, per := range persons {
		doc, err := marshalDoc(per.ID, per)
		if err != nil {
			return Batch{}, err
		}
		docs = append(docs, doc)
	}
	return Batch{Docs: docs, Watermark: mark}, nil
}

// changes selects the next batch of modified rows for table and computes
// the watermark the batch is allowed to commit.
func (p *Producer) changes(ctx context.Context, table repo.Table, stateKey string) ([]repo.ModifiedRow, time.Time, error) {
	after := p.marks.GetTime(stateKey)
	rows, err := p.src.ModifiedRows(ctx, table, after, p.limit)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(rows) == 0 {
		return nil, time.Time{}, nil
	}
	if len(rows) < p.limit {
		// the selection was exhaustive, every timestamp is complete
		return rows, rows[len(rows)-1].Modified, nil
	}

	last := rows[len(rows)-1].Modified
	if rows[0].Modified.Equal(last) {
		// the limit cut a single-timestamp cluster; refetch it whole
		cluster, err := p.src.ModifiedRowsAt(ctx, table, last)
		if err != nil {
			return nil, time.Time{}, err
		}
		return cluster, last, nil
	}

	// drop the possibly incomplete trailing timestamp, it reselects
	// next tick once the watermark stops just short of it
	cut := len(rows)
	for cut > 0 && rows[cut-1].Modified.Equal(last) {
		cut--
	}
	return rows[:cut], rows[cut-1].Modified, nil
}

// filmDocs hydrates and merges films into upsert-ready documents,
// ordered by id for deterministic batches.
func (p *Producer) filmDocs(ctx context.Context, ids []uuid.UUID) ([]search.Doc, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.src.FilmRows(ctx, ids)
	if err != nil {
		return nil, err
	}
	films := MergeFilmRows(rows)
	docs := make([]search.Doc, 0, len(films))
	for _, f := range films {
		doc, err := marshalDoc(f.ID, f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// MergeFilmRows folds the hydration join back into film documents. A film
// appears once per (person-role, genre) pair; the set fields absorb the
// duplication. Unknown roles are skipped without error.
func MergeFilmRows(rows []repo.FilmRow) []*model.Film {
	films := make(map[uuid.UUID]*model.Film, len(rows))
	for _, row := range rows {
		f, ok := films[row.FilmID]
		if !ok {
			f = model.NewFilm(row.FilmID)
			f.Title = row.Title
			f.Description = row.Description
			f.IMDbRating = row.Rating
			films[row.FilmID] = f
		}
		if row.GenreID != nil && row.GenreName != nil {
			f.AddGenre(model.Genre{ID: *row.GenreID, Name: *row.GenreName})
		}
		if row.PersonID != nil && row.PersonName != nil && row.Role != nil {
			if role, ok := model.ParseRole(*row.Role); ok {
				f.AddCredit(role, model.Person{ID: *row.PersonID, Name: *row.PersonName})
			}
		}
	}

	out := make([]*model.Film, 0, len(films))
	for _, f := range films {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

func marshalDoc(id uuid.UUID, v any) (search.Doc, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return search.Doc{}, perr.JSONErrf("marshal document %s: %v", id, err)
	}
	return search.Doc{ID: id.String(), Body: b}, nil
}

func modifiedIDs(rows []repo.ModifiedRow) []uuid.UUID {
	out := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
