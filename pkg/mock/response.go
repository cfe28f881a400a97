package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devmock/devmock/pkg/logging"
)

// ErrAlreadyWritten is returned when a second terminal write is
// attempted. The second write is suppressed; the response stream is
// never corrupted.
var ErrAlreadyWritten = errors.New("response already written")

// Response is the write side handed to route handlers: chainable
// mutators (Status, Header) and exactly one terminal writer (JSON, Raw,
// or End).
type Response struct {
	w      http.ResponseWriter
	logger *slog.Logger

	status  int
	written bool

	// beforeSend runs once with the final status, headers, and body
	// immediately before the terminal write reaches the wire. The
	// recorder hooks in here so entries are appended before the
	// response is sent.
	beforeSend func(status int, headers map[string]string, body []byte)
}

// NewResponse wraps an http.ResponseWriter. The status defaults to 200
// until Status is called.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{
		w:      w,
		logger: logging.Nop(),
		status: http.StatusOK,
	}
}

// SetLogger sets the logger used to report suppressed duplicate writes.
func (r *Response) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// OnSend registers fn to run once with the final status, headers, and
// body immediately before the terminal write.
func (r *Response) OnSend(fn func(status int, headers map[string]string, body []byte)) {
	r.beforeSend = fn
}

// Status sets the response status code. Chainable; the last call before
// the terminal write wins. Calls after the terminal write are ignored.
func (r *Response) Status(code int) *Response {
	if !r.written && code > 0 {
		r.status = code
	}
	return r
}

// Header sets a response header. Chainable; calls after the terminal
// write are ignored.
func (r *Response) Header(key, value string) *Response {
	if !r.written {
		r.w.Header().Set(key, value)
	}
	return r
}

// JSON serializes v and writes it as the terminal response with an
// application/json content type.
func (r *Response) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal response body: %w", err)
	}
	return r.send("application/json", data)
}

// Raw writes body verbatim as the terminal response. An empty
// contentType is auto-detected (JSON or plain text).
func (r *Response) Raw(contentType string, body []byte) error {
	if contentType == "" {
		contentType = detectContentType(body)
	}
	return r.send(contentType, body)
}

// End terminates the response with the current status and no body.
func (r *Response) End() error {
	return r.send("", nil)
}

// Written reports whether a terminal write has fired.
func (r *Response) Written() bool {
	return r.written
}

// StatusCode returns the status that was, or will be, written.
func (r *Response) StatusCode() int {
	return r.status
}

func (r *Response) send(contentType string, body []byte) error {
	if r.written {
		r.logger.Warn("duplicate terminal write suppressed",
			"status", r.status,
			"bytes", len(body))
		return ErrAlreadyWritten
	}
	r.written = true

	if contentType != "" && r.w.Header().Get("Content-Type") == "" {
		r.w.Header().Set("Content-Type", contentType)
	}

	if r.beforeSend != nil {
		r.beforeSend(r.status, FlattenHeaders(r.w.Header()), body)
	}

	r.w.WriteHeader(r.status)
	if len(body) > 0 {
		_, _ = r.w.Write(body)
	}
	return nil
}

// detectContentType picks a content type for Raw bodies written without
// one. JSON-shaped bodies get application/json, everything else text.
func detectContentType(body []byte) string {
	s := strings.TrimSpace(string(body))
	if (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
