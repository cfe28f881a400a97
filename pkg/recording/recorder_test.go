package recording

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/devmock/devmock/pkg/mock"
)

func testEntry(method, url string, status int, body string) *RecordedRequest {
	req := &mock.Request{
		URL:     url,
		Method:  method,
		Params:  map[string]string{},
		Query:   map[string]string{},
		Headers: map[string]string{"Accept": "application/json"},
	}
	return Capture(req, status, map[string]string{"Content-Type": "application/json"}, []byte(body), 0)
}

func TestRecorderLifecycle(t *testing.T) {
	r := NewRecorder(t.TempDir())

	if r.State() != StateIdle {
		t.Fatalf("expected idle state, got %s", r.State())
	}
	if err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop while idle: expected ErrNotRecording, got %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !r.Recording() {
		t.Error("expected recorder to be recording after Start")
	}
	if err := r.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start: expected ErrAlreadyRecording, got %v", err)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.Recording() {
		t.Error("expected recorder to be idle after Stop")
	}
}

func TestAppendOnlyWhileRecording(t *testing.T) {
	r := NewRecorder(t.TempDir())

	r.Append(testEntry("GET", "/dropped", 200, `{}`))
	if r.Len() != 0 {
		t.Fatalf("expected entries while idle to be dropped, got %d", r.Len())
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Append(testEntry("GET", "/kept", 200, `{}`))
	r.Append(nil)
	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	r.Append(testEntry("GET", "/late", 200, `{}`))
	if r.Len() != 1 {
		t.Errorf("expected entry after Stop to be dropped, got %d entries", r.Len())
	}
}

func TestStartKeepsBuffer(t *testing.T) {
	r := NewRecorder(t.TempDir())

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Append(testEntry("GET", "/one", 200, `{}`))
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	r.Append(testEntry("GET", "/two", 200, `{}`))

	if r.Len() != 2 {
		t.Errorf("expected resumed recording to append, got %d entries", r.Len())
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("expected Clear to empty the buffer, got %d entries", r.Len())
	}
	if !r.Recording() {
		t.Error("Clear must not change the lifecycle state")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	r := NewRecorder(t.TempDir())
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Append(testEntry("GET", "/a", 200, `{}`))

	entries := r.Entries()
	entries[0] = nil
	if r.Entries()[0] == nil {
		t.Error("mutating the returned slice must not affect the buffer")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	r.Append(testEntry("GET", "/api/users", 200, `{"users":[{"id":1}]}`))
	r.Append(testEntry("POST", "/api/users", 201, `{"id":2}`))
	r.Append(testEntry("DELETE", "/api/users/2", 204, ""))

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	captured := r.Entries()

	if err := r.Save("session"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Save must not clear the buffer, got %d entries", r.Len())
	}

	loaded, err := r.Load("session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 loaded entries, got %d", len(loaded))
	}

	for i := range captured {
		if loaded[i].ID != captured[i].ID {
			t.Errorf("entry %d: id changed across round-trip", i)
		}
		if loaded[i].URL != captured[i].URL || loaded[i].Method != captured[i].Method {
			t.Errorf("entry %d: url/method changed across round-trip", i)
		}
		if loaded[i].Response.StatusCode != captured[i].Response.StatusCode {
			t.Errorf("entry %d: status changed across round-trip", i)
		}
		if !reflect.DeepEqual(loaded[i].Response.Body, captured[i].Response.Body) {
			t.Errorf("entry %d: body changed across round-trip: %#v != %#v",
				i, loaded[i].Response.Body, captured[i].Response.Body)
		}
	}
}

func TestSaveEmptyBuffer(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)

	if err := r.Save("empty"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "empty.json"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestLoadMissing(t *testing.T) {
	r := NewRecorder(t.TempDir())
	_, err := r.Load("ghost")
	if !errors.Is(err, ErrRecordingNotFound) {
		t.Errorf("expected ErrRecordingNotFound, got %v", err)
	}
}

func TestInvalidNames(t *testing.T) {
	r := NewRecorder(t.TempDir())

	for _, name := range []string{"", "../evil", "a/b", ".hidden", "has space"} {
		if err := r.Save(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q): expected ErrInvalidName, got %v", name, err)
		}
		if _, err := r.Load(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Load(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestCaptureSnapshotsRequest(t *testing.T) {
	req := &mock.Request{
		URL:     "/api/items/7",
		Method:  "GET",
		Params:  map[string]string{"id": "7"},
		Query:   map[string]string{"verbose": "true"},
		Headers: map[string]string{"Accept": "application/json"},
	}
	e := Capture(req, 200, map[string]string{"Content-Type": "application/json"}, []byte(`{"id":7}`), 150)

	req.Params["id"] = "mutated"
	if e.Request.Params["id"] != "7" {
		t.Error("captured params must not alias the live request")
	}

	if e.ID == "" {
		t.Error("expected a generated entry id")
	}
	if e.Timestamp.IsZero() {
		t.Error("expected a capture timestamp")
	}
	if e.Response.Delay != 150 {
		t.Errorf("expected delay 150, got %d", e.Response.Delay)
	}
	body, ok := e.Response.Body.(map[string]any)
	if !ok {
		t.Fatalf("expected JSON body to decode to a map, got %T", e.Response.Body)
	}
	if body["id"] != float64(7) {
		t.Errorf("unexpected body: %#v", body)
	}
}

func TestCaptureNonJSONBody(t *testing.T) {
	req := &mock.Request{URL: "/plain", Method: "GET"}
	e := Capture(req, 200, nil, []byte("hello world"), 0)

	if e.Response.Body != "hello world" {
		t.Errorf("expected raw text fallback, got %#v", e.Response.Body)
	}

	empty := Capture(req, 204, nil, nil, 0)
	if empty.Response.Body != nil {
		t.Errorf("expected nil body for empty response, got %#v", empty.Response.Body)
	}
}
