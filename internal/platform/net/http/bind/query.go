package bind

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	perr "cinedex/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

// ParseQuery binds URL query parameters onto T by `query` tags, fills
// absent parameters from `default` tags, then validates the struct.
// Failures map to invalid-argument project errors carrying the field.
func ParseQuery[T any](r *http.Request) (T, error) {
	var dst T
	rv := reflect.ValueOf(&dst).Elem()
	rt := rv.Type()
	q := r.URL.Query()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := f.Tag.Get("query")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		raw := q.Get(name)
		if raw == "" {
			raw = f.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := setScalar(rv.Field(i), raw); err != nil {
			var zero T
			return zero, perr.WithField(perr.InvalidArgf("%s must be a valid %s", name, rv.Field(i).Kind()), name)
		}
	}

	if err := Get().Validator.Struct(dst); err != nil {
		var zero T
		if inv, ok := err.(*validator.InvalidValidationError); ok {
			return zero, perr.InvalidArgf("validation error: %v", inv)
		}
		field, msg := ValidationFieldAndMessage(err)
		return zero, perr.WithField(perr.InvalidArgf("%s", msg), field)
	}
	return dst, nil
}

// setScalar parses raw into the supported query parameter kinds.
// Anything else in a query struct is a programming error.
func setScalar(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		panic(fmt.Sprintf("bind: unsupported query field kind %s", v.Kind()))
	}
	return nil
}
