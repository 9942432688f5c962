package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	perr "cinedex/internal/platform/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticConfig carries dial settings for the Elasticsearch adapter.
type ElasticConfig struct {
	URL string
}

// Elastic implements Port on an Elasticsearch cluster.
type Elastic struct {
	es *elasticsearch.Client
}

// NewElastic builds the adapter. The connection is lazy, use Ping to probe.
func NewElastic(cfg ElasticConfig) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.URL}})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "search client init")
	}
	return &Elastic{es: es}, nil
}

// Get fetches one document by id.
func (e *Elastic) Get(ctx context.Context, index, id string) (json.RawMessage, error) {
	res, err := e.es.Get(index, id, e.es.Get.WithContext(ctx))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "search get")
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, perr.NotFoundf("document %s/%s not found", index, id)
	}
	if res.IsError() {
		return nil, statusErr(res, "search get")
	}

	var env struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "search get decode")
	}
	return env.Source, nil
}

// Search runs q against index and returns the matching document sources.
func (e *Elastic) Search(ctx context.Context, index string, q Query, p Page, sort string) ([]json.RawMessage, error) {
	body := map[string]any{"query": q, "size": p.Size, "from": p.From()}
	if s := sortClause(sort); s != nil {
		body["sort"] = s
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "search request encode")
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "search query")
	}
	defer drain(res)

	if res.IsError() {
		return nil, statusErr(res, "search query")
	}

	var env struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "search response decode")
	}

	out := make([]json.RawMessage, 0, len(env.Hits.Hits))
	for _, h := range env.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// BulkUpsert indexes docs in one bulk request. Per-item rejections are
// not retryable, the first reason is surfaced alongside the accept count.
func (e *Elastic) BulkUpsert(ctx context.Context, index string, docs []Doc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, d := range docs {
		meta, err := json.Marshal(map[string]any{"index": map[string]any{"_index": index, "_id": d.ID}})
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeUnknown, "bulk meta encode")
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(bytes.TrimSpace(d.Body))
		buf.WriteByte('\n')
	}

	res, err := e.es.Bulk(bytes.NewReader(buf.Bytes()), e.es.Bulk.WithContext(ctx))
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "bulk request")
	}
	defer drain(res)

	if res.IsError() {
		return 0, statusErr(res, "bulk request")
	}

	var env struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnknown, "bulk response decode")
	}
	if !env.Errors {
		return len(env.Items), nil
	}

	accepted, reason := 0, ""
	for _, item := range env.Items {
		for _, op := range item {
			if op.Error == nil {
				accepted++
			} else if reason == "" {
				reason = op.Error.Reason
			}
		}
	}
	return accepted, perr.Internalf("bulk rejected %d of %d docs: %s", len(docs)-accepted, len(docs), reason)
}

// EnsureIndex creates index with mapping, treating "already exists" as
// success.
func (e *Elastic) EnsureIndex(ctx context.Context, index string, mapping []byte) error {
	res, err := e.es.Indices.Create(
		index,
		e.es.Indices.Create.WithContext(ctx),
		e.es.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "index create")
	}
	defer drain(res)

	if !res.IsError() {
		return nil
	}
	body := readBody(res)
	if res.StatusCode == http.StatusBadRequest && strings.Contains(body, "resource_already_exists_exception") {
		return nil
	}
	return statusBodyErr(res.StatusCode, body, "index create")
}

// Ping probes the backend.
func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.es.Ping(e.es.Ping.WithContext(ctx))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "search ping")
	}
	defer drain(res)
	if res.IsError() {
		return perr.Unavailablef("search ping: %s", res.Status())
	}
	return nil
}

// drain finishes the response body so the transport can reuse the
// connection.
func drain(res *esapi.Response) {
	if res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

// readBody returns up to 2KB of the response body for error messages.
func readBody(res *esapi.Response) string {
	if res.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return strings.TrimSpace(string(b))
}

func statusErr(res *esapi.Response, op string) error {
	return statusBodyErr(res.StatusCode, readBody(res), op)
}

// statusBodyErr maps backend failures onto the platform taxonomy:
// overload and 5xx are transient, the rest mean the request itself is bad.
func statusBodyErr(status int, body, op string) error {
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return perr.Unavailablef("%s: status %d: %s", op, status, body)
	}
	return perr.Internalf("%s: status %d: %s", op, status, body)
}
