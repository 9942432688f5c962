package bind

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	perr "cinedex/internal/platform/errors"
)

// UUIDParam extracts and parses a uuid path parameter. Malformed values
// map to an invalid-argument project error carrying the parameter name.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, perr.WithField(perr.InvalidArgf("%s must be a valid uuid", name), name)
	}
	return id, nil
}
