// Package recording captures handled request/response pairs for later
// inspection and replay. A Recorder toggles between idle and recording;
// while recording, the engine appends one entry per matched request
// before the response hits the wire. The buffer persists to
// recordings/<name>.json and converts 1:1 into scenario routes.
package recording

import (
	"errors"
	"time"

	"github.com/devmock/devmock/internal/id"
	"github.com/devmock/devmock/pkg/mock"
)

// Errors for request recording
var (
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrInvalidName       = errors.New("invalid recording name")
)

// RecordedRequest is one captured request/response pair. Entries are
// created only while recording and are immutable once persisted.
type RecordedRequest struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`

	Request  *mock.Request    `json:"request"`
	Response RecordedResponse `json:"response"`
}

// RecordedResponse is the response side of a captured pair, as it went
// out on the wire.
type RecordedResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`

	// Body is the response body: the decoded JSON value when the body
	// parses, otherwise the raw text. Nil for empty responses.
	Body any `json:"body,omitempty"`

	// Delay is the artificial delay in milliseconds that was applied
	// when serving the response, so a replayed scenario keeps its
	// timing.
	Delay int `json:"delay,omitempty"`
}

// Capture builds an entry from a normalized request and the final
// response data. The request is cloned so the entry outlives handling.
func Capture(req *mock.Request, status int, headers map[string]string, body []byte, delayMs int) *RecordedRequest {
	return &RecordedRequest{
		ID:        id.Short(),
		URL:       req.URL,
		Method:    req.Method,
		Timestamp: time.Now(),
		Request:   req.Clone(),
		Response: RecordedResponse{
			StatusCode: status,
			Headers:    cloneHeaders(headers),
			Body:       mock.ParseBody(body),
			Delay:      delayMs,
		},
	}
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	c := make(map[string]string, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}
