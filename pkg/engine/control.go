package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/devmock/devmock/pkg/httputil"
	"github.com/devmock/devmock/pkg/mock"
	"github.com/devmock/devmock/pkg/recording"
	"github.com/devmock/devmock/pkg/requestlog"
	"github.com/devmock/devmock/pkg/scenario"
	"github.com/devmock/devmock/pkg/template"
)

// AdminHandler returns the management API as a mountable http.Handler.
// The host picks the mount point (the bundled server uses /__devmock/);
// all paths here are relative to it.
func (e *Engine) AdminHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", e.handleHealth)
	mux.HandleFunc("GET /routes", e.handleListRoutes)

	mux.HandleFunc("GET /scenarios", e.handleListScenarios)
	mux.HandleFunc("POST /scenarios", e.handleCreateScenario)
	mux.HandleFunc("POST /scenarios/activate", e.handleActivateScenario)
	mux.HandleFunc("DELETE /scenarios/{name}", e.handleDeleteScenario)

	mux.HandleFunc("GET /recording", e.handleRecordingStatus)
	mux.HandleFunc("POST /recording/start", e.handleRecordingStart)
	mux.HandleFunc("POST /recording/stop", e.handleRecordingStop)
	mux.HandleFunc("POST /recording/save", e.handleRecordingSave)
	mux.HandleFunc("POST /recording/convert", e.handleRecordingConvert)

	mux.HandleFunc("GET /templates", e.handleListTemplates)
	mux.HandleFunc("GET /templates/{name}", e.handlePreviewTemplate)

	mux.HandleFunc("GET /requests", e.handleListRequests)
	mux.HandleFunc("DELETE /requests", e.handleClearRequests)

	return mux
}

// errorStatus maps domain errors onto HTTP status and a stable error
// code for the shared JSON error shape.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, scenario.ErrScenarioNotFound):
		return http.StatusNotFound, "scenario_not_found"
	case errors.Is(err, scenario.ErrScenarioExists):
		return http.StatusConflict, "scenario_exists"
	case errors.Is(err, scenario.ErrScenarioProtected):
		return http.StatusConflict, "scenario_protected"
	case errors.Is(err, scenario.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name"
	case errors.Is(err, recording.ErrRecordingNotFound):
		return http.StatusNotFound, "recording_not_found"
	case errors.Is(err, recording.ErrAlreadyRecording):
		return http.StatusConflict, "already_recording"
	case errors.Is(err, recording.ErrNotRecording):
		return http.StatusConflict, "not_recording"
	case errors.Is(err, recording.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	httputil.WriteError(w, status, code, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", "request body must be JSON")
		return false
	}
	return true
}

func (e *Engine) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status":  "ok",
		"enabled": e.cfg.IsEnabled(),
		"routes":  e.registry.Len(),
	})
}

type routeListResponse struct {
	Routes []*mock.Route `json:"routes"`
	Total  int           `json:"total"`
}

func (e *Engine) handleListRoutes(w http.ResponseWriter, _ *http.Request) {
	routes := e.registry.Snapshot()
	httputil.WriteOK(w, routeListResponse{Routes: routes, Total: len(routes)})
}

type scenarioListResponse struct {
	Scenarios []*scenario.Scenario `json:"scenarios"`
	Active    string               `json:"active"`
}

func (e *Engine) handleListScenarios(w http.ResponseWriter, _ *http.Request) {
	resp := scenarioListResponse{Scenarios: e.scenarios.List()}
	if active := e.scenarios.Active(); active != nil {
		resp.Active = active.Name
	}
	httputil.WriteOK(w, resp)
}

type createScenarioRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Routes      []*mock.Route `json:"routes,omitempty"`
}

func (e *Engine) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := e.scenarios.Create(req.Name, req.Description, req.Routes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, s)
}

type activateScenarioRequest struct {
	Name string `json:"name"`
}

func (e *Engine) handleActivateScenario(w http.ResponseWriter, r *http.Request) {
	var req activateScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := e.scenarios.Switch(req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, s)
}

func (e *Engine) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := e.scenarios.Delete(r.PathValue("name")); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type recordingStatusResponse struct {
	State   recording.State `json:"state"`
	Entries int             `json:"entries"`
}

func (e *Engine) recordingStatus() recordingStatusResponse {
	return recordingStatusResponse{State: e.recorder.State(), Entries: e.recorder.Len()}
}

func (e *Engine) handleRecordingStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, e.recordingStatus())
}

func (e *Engine) handleRecordingStart(w http.ResponseWriter, _ *http.Request) {
	if err := e.recorder.Start(); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, e.recordingStatus())
}

func (e *Engine) handleRecordingStop(w http.ResponseWriter, _ *http.Request) {
	if err := e.recorder.Stop(); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, e.recordingStatus())
}

type saveRecordingRequest struct {
	Name string `json:"name"`
}

func (e *Engine) handleRecordingSave(w http.ResponseWriter, r *http.Request) {
	var req saveRecordingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := e.recorder.Save(req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, map[string]any{"name": req.Name, "entries": e.recorder.Len()})
}

type convertRecordingRequest struct {
	Recording string `json:"recording"`
	Scenario  string `json:"scenario"`
}

func (e *Engine) handleRecordingConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRecordingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := e.GenerateScenario(req.Recording, req.Scenario)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, s)
}

func (e *Engine) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, map[string]any{"templates": template.Names()})
}

func (e *Engine) handlePreviewTemplate(w http.ResponseWriter, r *http.Request) {
	count := 1
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteBadRequest(w, "invalid_count", "count must be a positive integer")
			return
		}
		count = n
	}
	value, err := template.Generate(r.PathValue("name"), count)
	if err != nil {
		httputil.WriteNotFound(w, "template_not_found", err.Error())
		return
	}
	httputil.WriteOK(w, value)
}

type requestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Total    int                 `json:"total"`
}

func (e *Engine) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter := &requestlog.Filter{
		Method: r.URL.Query().Get("method"),
		Path:   r.URL.Query().Get("path"),
	}
	for name, dst := range map[string]*int{
		"status": &filter.Status,
		"limit":  &filter.Limit,
		"offset": &filter.Offset,
	} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "invalid_"+name, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	entries := e.requests.List(filter)
	httputil.WriteOK(w, requestListResponse{Requests: entries, Total: e.requests.Count()})
}

func (e *Engine) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	cleared := e.requests.Count()
	e.requests.Clear()
	httputil.WriteOK(w, map[string]int{"cleared": cleared})
}
