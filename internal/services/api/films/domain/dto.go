package domain

import (
	"github.com/google/uuid"

	"cinedex/internal/core/model"
	perr "cinedex/internal/platform/errors"
)

// ListParams are the query parameters of the films list
type ListParams struct {
	Sort     string `query:"sort" json:"sort" default:"-imdb_rating" validate:"oneof=imdb_rating -imdb_rating" example:"-imdb_rating"`
	Genre    string `query:"genre" json:"genre" validate:"omitempty,uuid" example:"1cacff68-643e-4ddd-8f57-84b62538081a"`
	PageSize int    `query:"page_size" json:"page_size" default:"50" validate:"min=1,max=100" example:"50"`
	PageNum  int    `query:"page_number" json:"page_number" default:"1" validate:"min=1" example:"1"`
}

// GenreID parses the optional genre filter, nil when unset
func (p ListParams) GenreID() (*uuid.UUID, error) {
	if p.Genre == "" {
		return nil, nil
	}
	id, err := uuid.Parse(p.Genre)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("genre must be a valid uuid"), "genre")
	}
	return &id, nil
}

// SearchParams are the query parameters of full-text film search
type SearchParams struct {
	Query    string `query:"query" json:"query" validate:"required,min=1" example:"star"`
	PageSize int    `query:"page_size" json:"page_size" default:"50" validate:"min=1,max=100" example:"50"`
	PageNum  int    `query:"page_number" json:"page_number" default:"1" validate:"min=1" example:"1"`
}

// FilmItem is the list projection of a film
type FilmItem struct {
	UUID       uuid.UUID `json:"uuid" example:"2e5561a2-bd6d-4c3f-a0a7-f3a307ee2e33"`
	Title      string    `json:"title" example:"Star Wars"`
	IMDbRating *float64  `json:"imdb_rating" example:"8.6"`
}

// FilmItemFrom projects a film document into the list shape
func FilmItemFrom(f *model.Film) FilmItem {
	return FilmItem{UUID: f.ID, Title: f.Title, IMDbRating: f.IMDbRating}
}

// FilmItemsFrom projects a batch of film documents into the list shape.
// Never nil, lists serialize as [] when empty
func FilmItemsFrom(films []model.Film) []FilmItem {
	out := make([]FilmItem, 0, len(films))
	for i := range films {
		out = append(out, FilmItemFrom(&films[i]))
	}
	return out
}

// DetailGenre is the {id, name} pair embedded in the film detail
type DetailGenre struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// FilmDetail is the single-film projection
type FilmDetail struct {
	UUID        uuid.UUID      `json:"uuid"`
	Title       string         `json:"title"`
	IMDbRating  *float64       `json:"imdb_rating"`
	Description *string        `json:"description"`
	Genre       []DetailGenre  `json:"genre"`
	Actors      []model.Person `json:"actors"`
	Writers     []model.Person `json:"writers"`
	Directors   []model.Person `json:"directors"`
}

// FilmDetailFrom projects a film document into the detail shape
func FilmDetailFrom(f *model.Film) FilmDetail {
	genres := f.Genres.Slice()
	gs := make([]DetailGenre, 0, len(genres))
	for _, g := range genres {
		gs = append(gs, DetailGenre{ID: g.ID, Name: g.Name})
	}
	return FilmDetail{
		UUID:        f.ID,
		Title:       f.Title,
		IMDbRating:  f.IMDbRating,
		Description: f.Description,
		Genre:       gs,
		Actors:      f.Actors.Slice(),
		Writers:     f.Writers.Slice(),
		Directors:   f.Directors.Slice(),
	}
}
