// Package repo reads the relational source of the catalog: watermark-driven
// change selection, join-table fan-out to affected films, and the hydration
// queries the producer merges into documents.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cinedex/internal/core/model"
	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"
	"cinedex/internal/platform/store"
	pstrings "cinedex/internal/platform/strings"
)

// Table names the mutable source tables that carry a modified timestamp.
// The set is closed; anything else is rejected before reaching SQL.
type Table string

const (
	TableFilmWork Table = "film_work"
	TableGenre    Table = "genre"
	TablePerson   Table = "person"
)

func (t Table) valid() bool {
	switch t {
	case TableFilmWork, TableGenre, TablePerson:
		return true
	}
	return false
}

// ModifiedRow is one row of a change-selection query.
type ModifiedRow struct {
	ID       uuid.UUID
	Modified time.Time
}

// FilmRow is one row of the film hydration join. A film appears once per
// (person-role, genre) pair; person and genre columns are null when the
// film has no crew or no genres on that side of the join.
type FilmRow struct {
	FilmID      uuid.UUID
	Title       string
	Description *string
	Rating      *float64
	Role        *string
	PersonID    *uuid.UUID
	PersonName  *string
	GenreID     *uuid.UUID
	GenreName   *string
}

// Queries runs the producer's SQL against the source database.
type Queries struct {
	q store.RowQuerier
}

// New builds the query runner over a store seam.
func New(q store.RowQuerier) *Queries {
	if q == nil {
		panic("etl repo requires a non nil querier")
	}
	return &Queries{q: q}
}

// ModifiedRows selects up to limit rows of table with modified strictly
// after the watermark, oldest first with id as the deterministic tie-break.
func (r *Queries) ModifiedRows(ctx context.Context, table Table, after time.Time, limit int) ([]ModifiedRow, error) {
	if !table.valid() {
		return nil, perr.Internalf("unknown source table %q", table)
	}
	sql := `
		SELECT id::text, modified
		FROM content.` + string(table) + `
		WHERE modified > $1
		ORDER BY modified, id
		LIMIT $2
	`
	rows, err := store.Many(ctx, r.q, scanModified, sql, after, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "select modified %s", table)
	}
	return dropNil(rows), nil
}

// ModifiedRowsAt selects every row of table whose modified equals at.
// The producer uses it to finish a timestamp cluster the batch limit cut.
func (r *Queries) ModifiedRowsAt(ctx context.Context, table Table, at time.Time) ([]ModifiedRow, error) {
	if !table.valid() {
		return nil, perr.Internalf("unknown source table %q", table)
	}
	sql := `
		SELECT id::text, modified
		FROM content.` + string(table) + `
		WHERE modified = $1
		ORDER BY id
	`
	rows, err := store.Many(ctx, r.q, scanModified, sql, at)
	if err != nil {
		return nil, perr.FromPostgresf(err, "select modified cluster %s", table)
	}
	return dropNil(rows), nil
}

// FilmIDsByGenres fans modified genres out to the films that carry them.
func (r *Queries) FilmIDsByGenres(ctx context.Context, genreIDs []uuid.UUID) ([]uuid.UUID, error) {
	const sql = `
		SELECT gfw.film_work_id::text
		FROM content.genre_film_work gfw
		WHERE gfw.genre_id = ANY($1::uuid[])
		GROUP BY gfw.film_work_id
		ORDER BY gfw.film_work_id
	`
	return r.filmIDs(ctx, sql, genreIDs, "fan out genres")
}

// FilmIDsByPersons fans modified persons out to the films they credit.
func (r *Queries) FilmIDsByPersons(ctx context.Context, personIDs []uuid.UUID) ([]uuid.UUID, error) {
	const sql = `
		SELECT pfw.film_work_id::text
		FROM content.person_film_work pfw
		WHERE pfw.person_id = ANY($1::uuid[])
		GROUP BY pfw.film_work_id
		ORDER BY pfw.film_work_id
	`
	return r.filmIDs(ctx, sql, personIDs, "fan out persons")
}

func (r *Queries) filmIDs(ctx context.Context, sql string, ids []uuid.UUID, op string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out, err := store.Many(ctx, r.q, scanUUID, sql, uuidStrings(ids))
	if err != nil {
		return nil, perr.FromPostgresf(err, "%s", op)
	}
	return dropNil(out), nil
}

// FilmRows hydrates the given films with one join across crew, roles and
// genres. Row order is not significant; the merge is order-independent.
func (r *Queries) FilmRows(ctx context.Context, filmIDs []uuid.UUID) ([]FilmRow, error) {
	if len(filmIDs) == 0 {
		return nil, nil
	}
	const sql = `
		SELECT
			fw.id::text,
			fw.title,
			fw.description,
			fw.rating,
			pfw.role,
			p.id::text,
			p.full_name,
			g.id::text,
			g.name
		FROM content.film_work fw
		LEFT JOIN content.person_film_work pfw ON pfw.film_work_id = fw.id
		LEFT JOIN content.person p ON p.id = pfw.person_id
		LEFT JOIN content.genre_film_work gfw ON gfw.film_work_id = fw.id
		LEFT JOIN content.genre g ON g.id = gfw.genre_id
		WHERE fw.id = ANY($1::uuid[])
	`
	rows, err := store.Many(ctx, r.q, scanFilmRow, sql, uuidStrings(filmIDs))
	if err != nil {
		return nil, perr.FromPostgresf(err, "hydrate films")
	}
	return dropNil(rows), nil
}

// GenresByIDs loads full genre entities for the genres index.
func (r *Queries) GenresByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Genre, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const sql = `
		SELECT g.id::text, g.name, g.description
		FROM content.genre g
		WHERE g.id = ANY($1::uuid[])
		ORDER BY g.id
	`
	genres, err := store.Many(ctx, r.q, scanGenre, sql, uuidStrings(ids))
	if err != nil {
		return nil, perr.FromPostgresf(err, "select genres")
	}
	return dropNil(genres), nil
}

// PersonsByIDs loads person entities for the persons index.
func (r *Queries) PersonsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const sql = `
		SELECT p.id::text, p.full_name
		FROM content.person p
		WHERE p.id = ANY($1::uuid[])
		ORDER BY p.id
	`
	persons, err := store.Many(ctx, r.q, scanPerson, sql, uuidStrings(ids))
	if err != nil {
		return nil, perr.FromPostgresf(err, "select persons")
	}
	return dropNil(persons), nil
}

//
// row scanners. Malformed rows (ids that do not parse) are logged and
// dropped so one poisoned row cannot wedge a whole stream.
//

func scanModified(row store.Row) (*ModifiedRow, error) {
	var (
		id       string
		modified time.Time
	)
	if err := row.Scan(&id, &modified); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		logger.Get().Warn().Str("id", id).Msg("skipping row with malformed id")
		return nil, nil
	}
	return &ModifiedRow{ID: uid, Modified: modified}, nil
}

func scanUUID(row store.Row) (*uuid.UUID, error) {
	var id string
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		logger.Get().Warn().Str("id", id).Msg("skipping row with malformed id")
		return nil, nil
	}
	return &uid, nil
}

func scanFilmRow(row store.Row) (*FilmRow, error) {
	var (
		id    string
		title string
		desc  *string
		rate  *float64
		role  *string
		pid   *string
		pname *string
		gid   *string
		gname *string
	)
	if err := row.Scan(&id, &title, &desc, &rate, &role, &pid, &pname, &gid, &gname); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		logger.Get().Warn().Str("id", id).Msg("skipping film row with malformed id")
		return nil, nil
	}
	fr := &FilmRow{
		FilmID:      uid,
		Title:       title,
		Description: desc,
		Rating:      rate,
		Role:        role,
		PersonName:  pname,
		GenreName:   gname,
	}
	fr.PersonID = parseOptionalID(pid, "person")
	fr.GenreID = parseOptionalID(gid, "genre")
	return fr, nil
}

func scanGenre(row store.Row) (*model.Genre, error) {
	var (
		id   string
		name string
		desc *string
	)
	if err := row.Scan(&id, &name, &desc); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		logger.Get().Warn().Str("id", id).Msg("skipping genre row with malformed id")
		return nil, nil
	}
	return &model.Genre{ID: uid, Name: name, Description: pstrings.Deref(desc)}, nil
}

func scanPerson(row store.Row) (*model.Person, error) {
	var (
		id   string
		name string
	)
	if err := row.Scan(&id, &name); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		logger.Get().Warn().Str("id", id).Msg("skipping person row with malformed id")
		return nil, nil
	}
	return &model.Person{ID: uid, Name: name}, nil
}

func parseOptionalID(s *string, kind string) *uuid.UUID {
	if s == nil {
		return nil
	}
	uid, err := uuid.Parse(*s)
	if err != nil {
		logger.Get().Warn().Str("kind", kind).Str("id", *s).Msg("dropping malformed joined id")
		return nil
	}
	return &uid
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// dropNil strips the placeholder entries the scanners return for skipped
// rows and flattens the pointers the store helpers hand back.
func dropNil[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
