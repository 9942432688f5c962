// Package bind decodes and validates inbound request data: JSON bodies,
// query parameters and path parameters. Failures come back as project
// errors so handlers can return them untouched
package bind

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ctxKey is a tiny context key for stashing parsed payloads
type ctxKey uint8

const bindJSONPayloadKey ctxKey = iota

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// UT aliases ut.Translator
type UT = ut.Translator

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// ValidatorSvc holds the singleton validator and its english translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	valOnce sync.Once
	valSvc  *ValidatorSvc

	// jsonMore is a seam so tests can force the trailing-data branch
	jsonMore = func(dec *json.Decoder) bool { return dec.More() }
)

// Init builds the validator singleton: english translations, wire names
// from json tags, short range messages
func Init() *ValidatorSvc {
	valOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(wireFieldName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerRangeMessages(v, trans)

		valSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return valSvc
}

// wireFieldName prefers the json tag so messages say page_size, not PageSize
func wireFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" || tag == "-" {
		return fld.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// registerRangeMessages swaps the stock min/max translations for shorter ones
func registerRangeMessages(v *validator.Validate, trans ut.Translator) {
	for tag, text := range map[string]string{
		"min": "{0} must be at least {1}",
		"max": "{0} must be at most {1}",
	} {
		_ = v.RegisterTranslation(tag, trans,
			func(u ut.Translator) error { return u.Add(tag, text, true) },
			func(u ut.Translator, fe validator.FieldError) string {
				msg, _ := u.T(tag, fe.Field(), fe.Param())
				return msg
			},
		)
	}
}

// Get returns the validator singleton, initializing on first use
func Get() *ValidatorSvc {
	if valSvc == nil {
		return Init()
	}
	return valSvc
}

// RegisterValidation registers a custom tag
func RegisterValidation(tag string, fn validator.Func) error {
	return Get().Validator.RegisterValidation(tag, fn)
}

// JSONOptions controls parsing behavior
type JSONOptions struct {
	MaxBytes        int64 // default 1MB
	DisallowUnknown bool  // default true
	AllowEmptyBody  bool  // default false
}

func defaultJSONOptions() JSONOptions {
	return JSONOptions{
		MaxBytes:        1 << 20,
		DisallowUnknown: true,
		AllowEmptyBody:  false,
	}
}

// errNoBody signals an empty body on a method where that is tolerable
var errNoBody = errors.New("no body")

// bodyReader wraps the request body according to o. When empty bodies are
// disallowed it probes one byte first: an empty body on a safe method
// returns errNoBody, on anything else a JSON project error
func bodyReader(r *http.Request, o JSONOptions) (io.Reader, error) {
	var reader io.Reader = r.Body

	if !o.AllowEmptyBody {
		probe := make([]byte, 1)
		n, _ := r.Body.Read(probe)
		if n == 0 {
			switch r.Method {
			case http.MethodGet, http.MethodDelete, http.MethodHead, http.MethodOptions:
				return nil, errNoBody
			}
			return nil, perr.JSONErrf("empty body")
		}
		reader = io.MultiReader(bytes.NewReader(probe[:n]), r.Body)
	}

	if o.MaxBytes > 0 {
		reader = io.LimitReader(reader, o.MaxBytes)
	}
	return reader, nil
}

// ParseJSON decodes JSON into T, validates it, and maps failures to project errors
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaultJSONOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	reader, err := bodyReader(r, o)
	if err != nil {
		if errors.Is(err, errNoBody) {
			return zero, nil
		}
		return zero, err
	}

	dec := json.NewDecoder(reader)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		// EOF is acceptable when empty bodies are allowed
		if o.AllowEmptyBody && errors.Is(err, io.EOF) {
			return dst, nil
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}

	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := Get().Validator.Struct(dst); err != nil {
		if inv, ok := err.(*validator.InvalidValidationError); ok {
			logger.Get().Error().Err(inv).Msg("validator internal error")
			return zero, perr.JSONErrf("validation error")
		}
		field, msg := ValidationFieldAndMessage(err)
		return zero, perr.WithField(perr.InvalidArgf("%s", msg), field)
	}

	return dst, nil
}

// JSON parses JSON into T and stores a pointer on the request context for downstream handler use
func JSON[T any](opts ...JSONOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			val, err := ParseJSON[T](r, opts...)
			if err != nil {
				// delegate error writing to caller. Keep this middleware transport-agnostic
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			ctx := context.WithValue(r.Context(), bindJSONPayloadKey, &val)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext retrieves the bound payload if present
func FromContext[T any](r *http.Request) *T {
	v, _ := r.Context().Value(bindJSONPayloadKey).(*T)
	return v
}

// ValidationFieldAndMessage returns the first field and translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return "", inv.Error()
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

// As re-exports errors.As to reduce import noise at call sites
func As(err error, target any) bool { return errors.As(err, target) }
