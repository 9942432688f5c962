package bind

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "cinedex/internal/platform/errors"
)

// searchBody doubles as the fixture for most decode tests
type searchBody struct {
	Query    string `json:"query" validate:"required,min=2"`
	PageSize int    `json:"page_size" validate:"min=1"`
}

func TestParseJSON_Success(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star wars","page_size":25}`))
	got, err := ParseJSON[searchBody](req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Query != "star wars" || got.PageSize != 25 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_EmptyBody_Disallow(t *testing.T) {
	req := httptest.NewRequest("POST", "/", http.NoBody)
	_, err := ParseJSON[searchBody](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v (%v)", perr.CodeOf(err), err)
	}
}

// AllowEmptyBody true takes the EOF path in Decode
func TestParseJSON_AllowEmptyBody_EOF_OK(t *testing.T) {
	type optionalFilter struct {
		Genre string `json:"genre"`
	}
	opts := JSONOptions{AllowEmptyBody: true}
	req := httptest.NewRequest("POST", "/", http.NoBody)

	got, err := ParseJSON[optionalFilter](req, opts)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if got != (optionalFilter{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

// AllowEmptyBody true with MaxBytes > 0 still limits the reader
func TestParseJSON_AllowEmptyBody_WithMaxBytes(t *testing.T) {
	type optionalFilter struct {
		Genre string `json:"genre"`
	}
	opts := JSONOptions{AllowEmptyBody: true, MaxBytes: 8}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))

	got, err := ParseJSON[optionalFilter](req, opts)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if got != (optionalFilter{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	_, err := ParseJSON[searchBody](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestParseJSON_UnknownField(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star","page_size":3,"imdb":1}`))
	_, err := ParseJSON[searchBody](req) // DisallowUnknown defaults on
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error for unknown field, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestParseJSON_DisallowUnknownFalse_OK(t *testing.T) {
	opts := JSONOptions{DisallowUnknown: false}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star","page_size":3,"extra":"ok"}`))
	got, err := ParseJSON[searchBody](req, opts)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if got.Query != "star" || got.PageSize != 3 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

// the seam forces the trailing-data branch without crafting a stream
func TestParseJSON_TrailingData_Seam(t *testing.T) {
	orig := jsonMore
	jsonMore = func(_ *json.Decoder) bool { return true }
	defer func() { jsonMore = orig }()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star","page_size":3}`))
	_, err := ParseJSON[searchBody](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error for trailing data, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestParseJSON_ValidationError(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"s","page_size":0}`))
	_, err := ParseJSON[searchBody](req)
	if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("expected invalid-argument error code, got %v (%v)", perr.CodeOf(err), err)
	}
	if e, ok := perr.As(err); !ok || e.Field() != "query" {
		t.Fatalf("expected offending field on error, got %v", err)
	}
}

// peek+combine path with no byte limit
func TestParseJSON_PeekCombine_NoLimit(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"dune","page_size":2}`))
	_, err := ParseJSON[searchBody](req, JSONOptions{MaxBytes: 0})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

// peek+combine path through the LimitReader branch
func TestParseJSON_PeekCombine_WithLimit(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"dune","page_size":2}`))
	_, err := ParseJSON[searchBody](req, JSONOptions{MaxBytes: 64})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestParseJSON_MaxBytes_Fail(t *testing.T) {
	opts := JSONOptions{MaxBytes: 5, DisallowUnknown: true, AllowEmptyBody: false}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star wars","page_size":25}`))
	_, err := ParseJSON[searchBody](req, opts)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error due to size limit, got %v (%v)", perr.CodeOf(err), err)
	}
}

// validator.Struct on a non-struct raises InvalidValidationError
func TestParseJSON_InvalidValidationError_Path(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`5`))
	_, err := ParseJSON[int](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON-coded error, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestJSONMiddleware_Success(t *testing.T) {
	mw := JSON[searchBody]()
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		p := FromContext[searchBody](r)
		if p == nil {
			t.Fatalf("expected body in context")
		}
		if p.Query != "star wars" || p.PageSize != 25 {
			t.Fatalf("unexpected body: %+v", *p)
		}
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"star wars","page_size":25}`))
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if !nextCalled {
		t.Fatalf("expected next to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJSONMiddleware_BindError(t *testing.T) {
	mw := JSON[searchBody]()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called on bind error")
	})
	req := httptest.NewRequest("POST", "/", http.NoBody)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) == "" {
		t.Fatalf("expected error body")
	}
}

func TestFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if v := FromContext[searchBody](req); v != nil {
		t.Fatalf("expected nil when nothing was bound")
	}
}

// field names come from json tags, comma options trimmed
func TestTagNameFunc_JSONTag(t *testing.T) {
	Init()
	type s struct {
		Rating int `json:"rating,omitempty" validate:"min=1"`
	}
	err := Get().Validator.Struct(s{Rating: 0})
	field, msg := ValidationFieldAndMessage(err)
	if field != "rating" {
		t.Fatalf("expected field=rating, got %s", field)
	}
	if !strings.Contains(msg, "at least") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestTagNameFunc_DashFallsBackToFieldName(t *testing.T) {
	Init()
	type s struct {
		Internal int `json:"-" validate:"min=1"`
	}
	err := Get().Validator.Struct(s{Internal: 0})
	field, _ := ValidationFieldAndMessage(err)
	if field != "Internal" {
		t.Fatalf("expected field=Internal, got %s", field)
	}
}

func TestTagNameFunc_UntaggedUsesFieldName(t *testing.T) {
	Init()
	type s struct {
		Raw int `validate:"min=1"`
	}
	err := Get().Validator.Struct(s{Raw: 0})
	field, _ := ValidationFieldAndMessage(err)
	if field != "Raw" {
		t.Fatalf("expected field=Raw, got %s", field)
	}
}

func TestValidationFieldAndMessage_GenericError(t *testing.T) {
	field, msg := ValidationFieldAndMessage(errors.New("index unreachable"))
	if field != "" || msg != "index unreachable" {
		t.Fatalf("expected generic passthrough, got field=%q msg=%q", field, msg)
	}
}

func TestTranslations_ShortMinAndMax(t *testing.T) {
	Init()

	type s struct {
		PageSize int `json:"page_size" validate:"min=1,max=100"`
	}

	err1 := Get().Validator.Struct(s{PageSize: 101})
	_, msg1 := ValidationFieldAndMessage(err1)
	if msg1 != "page_size must be at most 100" {
		t.Fatalf("unexpected max message: %q", msg1)
	}

	err2 := Get().Validator.Struct(s{PageSize: 0})
	_, msg2 := ValidationFieldAndMessage(err2)
	if msg2 != "page_size must be at least 1" {
		t.Fatalf("unexpected min message: %q", msg2)
	}
}

func TestRegisterValidation_DuplicateTag_Overwrites(t *testing.T) {
	Init()

	// first registration always fails
	if err := RegisterValidation("known_sort", func(fl FieldLevel) bool { return false }); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	// second registration replaces it with one that always passes
	if err := RegisterValidation("known_sort", func(fl FieldLevel) bool { return true }); err != nil {
		t.Fatalf("unexpected error on second register: %v", err)
	}

	type S struct {
		Sort string `json:"sort" validate:"known_sort"`
	}

	if err := Get().Validator.Struct(S{Sort: "title"}); err != nil {
		t.Fatalf("expected validation to pass after overwrite, got %v", err)
	}
}
