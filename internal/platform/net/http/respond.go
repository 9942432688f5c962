// Package http provides the HTTP server shell and JSON response helpers.
// Success bodies are written bare (the resource or list itself), errors
// are written as the platform wire shape {code, message, field}.
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "cinedex/internal/platform/errors"
	lumnet "cinedex/internal/platform/net"
)

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError maps a project error to its status and writes the wire body.
// The request id travels in a header so payload shapes stay clean.
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	if reqID := lumnet.RequestID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-Id", reqID)
	}
	JSON(w, perr.HTTPStatus(err), perr.WireFrom(err))
}

//
// Return-style helpers for early returns in handlers
//

// Response is a functional response object for return-style handlers
type Response struct {
	Status int
	Body   any
	// optional headers if a handler wants to add any
	Header stdhttp.Header
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	// allow header overrides
	if resp.Header != nil {
		for k, vv := range resp.Header {
			for _, v := range vv {
				w.Header().Add(k, v)
			}
		}
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(stdhttp.StatusNoContent)
		return
	}

	// If Body is an error, the error decides the status
	if err, ok := resp.Body.(error); ok && err != nil {
		RespondError(w, r, err)
		return
	}

	JSON(w, status, resp.Body)
}

// OK returns a 200 response with data as the bare body
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response that maps the error to status and wire body
func Error(err error) Response { return Response{Body: err} }
