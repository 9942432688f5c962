// Package model defines the denormalized catalog entities shared by the ETL
// pipeline and the query services: films, genres, persons, and the set types
// they embed. Set-valued fields marshal as sorted JSON arrays so repeated
// serializations of one value are byte-identical.
package model

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Role is a person's credit on a film. The enum is closed; source rows with
// any other role string are skipped during merge.
type Role string

const (
	RoleActor    Role = "actor"
	RoleDirector Role = "director"
	RoleWriter   Role = "writer"
)

// ParseRole maps a source role string onto the closed enum.
// Unknown strings report ok=false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleActor, RoleDirector, RoleWriter:
		return r, true
	}
	return "", false
}

// Person is a film credit subject. Identity is the id alone; inserting a
// person with a known id into a set replaces the stored name.
type Person struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Genre classifies films. Description is optional and only carried on the
// genre entity document, never inside film documents.
type Genre struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// PersonSet collects persons uniquely by id (last write wins on the name).
// It marshals as a JSON array sorted by id.
type PersonSet map[uuid.UUID]Person

// NewPersonSet builds a set from the given persons.
func NewPersonSet(ps ...Person) PersonSet {
	s := make(PersonSet, len(ps))
	for _, p := range ps {
		s.Add(p)
	}
	return s
}

// Add inserts or replaces p by id.
func (s PersonSet) Add(p Person) { s[p.ID] = p }

// Has reports whether id is a member.
func (s PersonSet) Has(id uuid.UUID) bool { _, ok := s[id]; return ok }

// Slice returns the members sorted by id. Never nil.
func (s PersonSet) Slice() []Person {
	out := make([]Person, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// MarshalJSON emits the sorted array form.
func (s PersonSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Slice()) }

// UnmarshalJSON accepts the array form and rebuilds the set.
func (s *PersonSet) UnmarshalJSON(b []byte) error {
	var ps []Person
	if err := json.Unmarshal(b, &ps); err != nil {
		return err
	}
	*s = NewPersonSet(ps...)
	return nil
}

// GenreSet collects genres uniquely by id (last write wins on the fields).
// It marshals as a JSON array sorted by id.
type GenreSet map[uuid.UUID]Genre

// NewGenreSet builds a set from the given genres.
func NewGenreSet(gs ...Genre) GenreSet {
	s := make(GenreSet, len(gs))
	for _, g := range gs {
		s.Add(g)
	}
	return s
}

// Add inserts or replaces g by id.
func (s GenreSet) Add(g Genre) { s[g.ID] = g }

// Has reports whether id is a member.
func (s GenreSet) Has(id uuid.UUID) bool { _, ok := s[id]; return ok }

// Slice returns the members sorted by id. Never nil.
func (s GenreSet) Slice() []Genre {
	out := make([]Genre, 0, len(s))
	for _, g := range s {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// MarshalJSON emits the sorted array form.
func (s GenreSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Slice()) }

// UnmarshalJSON accepts the array form and rebuilds the set.
func (s *GenreSet) UnmarshalJSON(b []byte) error {
	var gs []Genre
	if err := json.Unmarshal(b, &gs); err != nil {
		return err
	}
	*s = NewGenreSet(gs...)
	return nil
}

// StringSet collects strings uniquely. It marshals as a lexicographically
// sorted JSON array.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(vals ...string) StringSet {
	s := make(StringSet, len(vals))
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v.
func (s StringSet) Add(v string) { s[v] = struct{}{} }

// Has reports whether v is a member.
func (s StringSet) Has(v string) bool { _, ok := s[v]; return ok }

// Slice returns the members sorted. Never nil.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON emits the sorted array form.
func (s StringSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Slice()) }

// UnmarshalJSON accepts the array form and rebuilds the set.
func (s *StringSet) UnmarshalJSON(b []byte) error {
	var vals []string
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	*s = NewStringSet(vals...)
	return nil
}

// Film is the denormalized search document: credits and genres embedded,
// with flat *_names fields kept solely for relevance scoring.
type Film struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IMDbRating  *float64  `json:"imdb_rating"`

	Genres      GenreSet  `json:"genres"`
	GenresNames StringSet `json:"genres_names"`

	Actors      PersonSet `json:"actors"`
	ActorsNames StringSet `json:"actors_names"`

	Directors      PersonSet `json:"directors"`
	DirectorsNames StringSet `json:"directors_names"`

	Writers      PersonSet `json:"writers"`
	WritersNames StringSet `json:"writers_names"`
}

// NewFilm returns a Film with every set field initialized empty.
func NewFilm(id uuid.UUID) *Film {
	return &Film{
		ID:             id,
		Genres:         GenreSet{},
		GenresNames:    StringSet{},
		Actors:         PersonSet{},
		ActorsNames:    StringSet{},
		Directors:      PersonSet{},
		DirectorsNames: StringSet{},
		Writers:        PersonSet{},
		WritersNames:   StringSet{},
	}
}

// AddGenre records g and its flat name.
func (f *Film) AddGenre(g Genre) {
	f.Genres.Add(Genre{ID: g.ID, Name: g.Name})
	f.GenresNames.Add(g.Name)
}

// AddCredit routes p into the credit set for role and records the flat name.
func (f *Film) AddCredit(role Role, p Person) {
	switch role {
	case RoleActor:
		f.Actors.Add(p)
		f.ActorsNames.Add(p.Name)
	case RoleDirector:
		f.Directors.Add(p)
		f.DirectorsNames.Add(p.Name)
	case RoleWriter:
		f.Writers.Add(p)
		f.WritersNames.Add(p.Name)
	}
}

// Roles reports the roles under which the given person id appears on f,
// in enum order.
func (f *Film) Roles(id uuid.UUID) []Role {
	var roles []Role
	if f.Actors.Has(id) {
		roles = append(roles, RoleActor)
	}
	if f.Directors.Has(id) {
		roles = append(roles, RoleDirector)
	}
	if f.Writers.Has(id) {
		roles = append(roles, RoleWriter)
	}
	return roles
}
