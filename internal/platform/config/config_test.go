package config

import (
	"net/url"
	"testing"
	"time"

	kit "cinedex/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	api := root.Prefix("API_")
	if got := api.key("PORT"); got != "API_PORT" {
		t.Fatalf("key() = %q, want %q", got, "API_PORT")
	}
	// prefixes nest
	apiCache := api.Prefix("CACHE_")
	if got := apiCache.key("TTL"); got != "API_CACHE_TTL" {
		t.Fatalf("nested key() = %q, want %q", got, "API_CACHE_TTL")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("API_")
	t.Setenv("API_SERVICE", "  cinedex-api ")
	if got := c.MustString("SERVICE"); got != "cinedex-api" {
		t.Fatalf("MustString = %q, want %q", got, "cinedex-api")
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("ETL_")
	t.Setenv("ETL_BATCH_SIZE", "  100 ")
	if got := c.MustInt("BATCH_SIZE"); got != 100 {
		t.Fatalf("MustInt = %d, want %d", got, 100)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("ETL_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustBool(t *testing.T) {
	c := New().Prefix("PG_")
	t.Setenv("PG_LOG_SQL", " true ")
	if !c.MustBool("LOG_SQL") {
		t.Fatalf("MustBool true expected")
	}
	kit.MustPanic(t, func() { _ = c.MustBool("MISSING") })
	t.Setenv("PG_BAD", "notabool")
	kit.MustPanic(t, func() { _ = c.MustBool("BAD") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("ETL_")
	t.Setenv("ETL_POLL_INTERVAL", " 250ms ")
	if got := c.MustDuration("POLL_INTERVAL"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v, want %v", got, 250*time.Millisecond)
	}
	t.Setenv("ETL_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMustURL(t *testing.T) {
	c := New().Prefix("ES_")
	t.Setenv("ES_URL", "http://localhost:9200")
	u := c.MustURL("URL")
	if _, err := url.Parse("http://localhost:9200"); err != nil || !u.IsAbs() {
		t.Fatalf("MustURL returned non-absolute URL")
	}
	t.Setenv("ES_BAD1", "://bad")
	kit.MustPanic(t, func() { _ = c.MustURL("BAD1") })
	t.Setenv("ES_BAD2", "/relative")
	kit.MustPanic(t, func() { _ = c.MustURL("BAD2") })
}

func TestMustPort(t *testing.T) {
	c := New().Prefix("API_")
	t.Setenv("API_PORT", "8000")
	if got := c.MustPort("PORT"); got != ":8000" {
		t.Fatalf("MustPort = %q, want %q", got, ":8000")
	}
	t.Setenv("API_BAD", "abc")
	kit.MustPanic(t, func() { _ = c.MustPort("BAD") })
	t.Setenv("API_OOB", "70000")
	kit.MustPanic(t, func() { _ = c.MustPort("OOB") })
}

func TestRequire(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_PG_URL", "postgres://localhost/movies")
	t.Setenv("REQ_ES_URL", "http://localhost:9200")
	// both present, no panic
	c.Require("PG_URL", "ES_URL")

	kit.MustPanic(t, func() { c.Require("PG_URL", "REDIS_ADDR") })
}

// May* fallbacks

func TestMayString(t *testing.T) {
	c := New().Prefix("REDIS_")
	if got := c.MayString("MISSING", "localhost:6379"); got != "localhost:6379" {
		t.Fatalf("MayString default = %q, want %q", got, "localhost:6379")
	}
	t.Setenv("REDIS_ADDR", " cache:6379 ")
	if got := c.MayString("ADDR", "x"); got != "cache:6379" {
		t.Fatalf("MayString value = %q, want %q", got, "cache:6379")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("ETL_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want %d", got, 9)
	}
	t.Setenv("ETL_LIMIT", " 7 ")
	if got := c.MayInt("LIMIT", 0); got != 7 {
		t.Fatalf("MayInt ok = %d, want %d", got, 7)
	}
	t.Setenv("ETL_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d, want %d", got, 3)
	}
}

func TestMayFloat64(t *testing.T) {
	c := New().Prefix("RETRY_")
	if got := c.MayFloat64("MISSING", 2.0); got != 2.0 {
		t.Fatalf("MayFloat64 default = %v, want %v", got, 2.0)
	}
	t.Setenv("RETRY_FACTOR", " 1.5 ")
	if got := c.MayFloat64("FACTOR", 2.0); got != 1.5 {
		t.Fatalf("MayFloat64 ok = %v, want %v", got, 1.5)
	}
	t.Setenv("RETRY_BAD", "fast")
	if got := c.MayFloat64("BAD", 2.0); got != 2.0 {
		t.Fatalf("MayFloat64 bad -> default = %v, want %v", got, 2.0)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("PG_")
	if got := c.MayBool("MISSING", true); got != true {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("PG_TRACE", "true")
	if got := c.MayBool("TRACE", false); got != true {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("PG_BADBOOL", "nope")
	if got := c.MayBool("BADBOOL", false); got != false {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("CACHE_")
	if got := c.MayDuration("MISS", 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("MayDuration default expected")
	}
	t.Setenv("CACHE_ITEM_TTL", "150ms")
	if got := c.MayDuration("ITEM_TTL", time.Second); got != 150*time.Millisecond {
		t.Fatalf("MayDuration ok = %v, want %v", got, 150*time.Millisecond)
	}
	t.Setenv("CACHE_BAD", "nope")
	if got := c.MayDuration("BAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad -> default expected")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("API_")
	def := []string{"GET", "OPTIONS"}
	if got := c.MayCSV("MISS", def); len(got) != 2 || got[0] != "GET" || got[1] != "OPTIONS" {
		t.Fatalf("MayCSV default mismatch: %#v", got)
	}
	t.Setenv("API_SORT_FIELDS", " imdb_rating, title , ,id ,, ")
	got := c.MayCSV("SORT_FIELDS", nil)
	want := []string{"imdb_rating", "title", "id"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("LOG_")

	// missing key takes the default without panicking
	if got := c.MayEnum("MISS", "json", "json", "console"); got != "json" {
		t.Fatalf("MayEnum default = %q, want %q", got, "json")
	}

	// matching is case-insensitive and keeps the raw value
	t.Setenv("LOG_FORMAT", "Console")
	if got := c.MayEnum("FORMAT", "json", "json", "console"); got != "Console" {
		t.Fatalf("MayEnum allowed value = %q, want %q", got, "Console")
	}

	t.Setenv("LOG_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "json", "json", "console") })
}

func TestRequireWhitespaceIsMissing(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_WS", "   ")
	kit.MustPanic(t, func() { c.Require("WS") })
}

func TestMayCSVAllEmptyFallsBackToDefault(t *testing.T) {
	c := New().Prefix("API_")
	def := []string{"imdb_rating"}
	t.Setenv("API_SORT_FIELDS", " , ,  ,")
	got := c.MayCSV("SORT_FIELDS", def)
	if len(got) != 1 || got[0] != "imdb_rating" {
		t.Fatalf("MayCSV all-empty -> default mismatch: %#v", got)
	}
}

func TestMayEnumEmptyDefaultAndMissingEnv(t *testing.T) {
	c := New().Prefix("LOG_")
	if got := c.MayEnum("MISSING", "", "json", "console"); got != "" {
		t.Fatalf("MayEnum with empty def and missing env = %q, want empty string", got)
	}
}
