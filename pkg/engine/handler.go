package engine

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/devmock/devmock/internal/matching"
	"github.com/devmock/devmock/pkg/httputil"
	"github.com/devmock/devmock/pkg/mock"
	"github.com/devmock/devmock/pkg/recording"
	"github.com/devmock/devmock/pkg/requestlog"
	"github.com/devmock/devmock/pkg/template"
)

var errHandlerPanic = errors.New("handler panicked")

// Handle offers the request to the engine. It returns false without
// touching the response when the engine is disabled, the path lies
// outside the configured prefix, or no route matches; the host then
// continues its own pipeline with the request body intact. It returns
// true once a response has been written, including validation 400s and
// handler 500s.
func (e *Engine) Handle(w http.ResponseWriter, r *http.Request) bool {
	if !e.cfg.IsEnabled() {
		return false
	}
	if !strings.HasPrefix(r.URL.Path, e.cfg.Prefix) {
		return false
	}

	start := time.Now()

	// Buffer the body up front: matching may need it, and when the
	// engine declines the host must still be able to read it.
	var body []byte
	if r.Body != nil && mock.CarriesBody(r.Method) {
		limited := http.MaxBytesReader(w, r.Body, e.cfg.MaxBodyBytes)
		var err error
		body, err = io.ReadAll(limited)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				e.logger.Warn("request body too large",
					"method", r.Method,
					"path", r.URL.Path,
					"limit", maxErr.Limit,
				)
				httputil.WriteError(w, http.StatusRequestEntityTooLarge,
					"body_too_large", "request body exceeds the configured limit")
				e.logRequest(start, r, "", http.StatusRequestEntityTooLarge, false, "request body too large")
				return true
			}
			e.logger.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	route, params := e.match(r, body)
	if route == nil {
		return false
	}

	delayMs := route.Delay
	if delayMs == 0 {
		delayMs = e.cfg.DefaultDelay
	}

	req := mock.NewRequest(r, params, body)
	res := mock.NewResponse(w)
	res.SetLogger(e.logger)

	// The capture hook runs inside the terminal write, so the recorded
	// body is exactly what went out, validation failures included.
	recorded := e.recorder.Recording()
	if recorded {
		res.OnSend(func(status int, headers map[string]string, sent []byte) {
			e.recorder.Append(recording.Capture(req, status, headers, sent, delayMs))
		})
	}

	if errMsg := e.validateBody(route, req, res); errMsg != "" {
		e.logRequest(start, r, route.Label(), res.StatusCode(), recorded, errMsg)
		return true
	}

	if delayMs > 0 {
		time.Sleep(time.Duration(delayMs) * time.Millisecond)
	}

	errMsg := e.respond(route, req, res)
	if !res.Written() {
		res.End()
	}

	e.logRequest(start, r, route.Label(), res.StatusCode(), recorded, errMsg)
	return true
}

// match walks the current snapshot in registration order and returns
// the first route whose criteria all hold, with its bound path
// parameters. Later duplicates are shadowed, never consulted.
func (e *Engine) match(r *http.Request, body []byte) (*mock.Route, map[string]string) {
	query := mock.FlattenQuery(r.URL.Query())

	for _, route := range e.registry.Snapshot() {
		if !matching.MatchMethod(route.Method, r.Method) {
			continue
		}
		re, err := route.Pattern()
		if err != nil {
			// Load-time validation rejects broken patterns; only a
			// code-registered route that skipped it gets here.
			e.logger.Warn("skipping route with invalid pattern", "route", route.Label(), "error", err)
			continue
		}
		params, ok := matching.MatchPath(re, r.URL.Path)
		if !ok {
			continue
		}
		if len(route.Query) > 0 && !matching.MatchQuery(route.Query, query) {
			continue
		}
		if len(route.MatchHeaders) > 0 && !matching.MatchHeaders(route.MatchHeaders, r.Header) {
			continue
		}
		if len(route.BodyJSONPath) > 0 && !matching.MatchJSONPath(route.BodyJSONPath, body) {
			continue
		}
		if route.When != "" && !e.evalWhen(route, r, params, query, body) {
			continue
		}
		return route, params
	}
	return nil, nil
}

func (e *Engine) evalWhen(route *mock.Route, r *http.Request, params, query map[string]string, body []byte) bool {
	prog, err := route.Condition()
	if err != nil {
		e.logger.Warn("skipping route with invalid condition", "route", route.Label(), "error", err)
		return false
	}
	env := matching.ConditionEnv(r.Method, r.URL.Path, params, query,
		mock.FlattenHeaders(r.Header), mock.ParseBody(body))
	ok, err := matching.EvalCondition(prog, env)
	if err != nil {
		e.logger.Debug("when condition errored, treating as no match",
			"route", route.Label(), "error", err)
		return false
	}
	return ok
}

// validateBody checks the request body against the route's JSON Schema
// when one is declared. On violation it writes the 400 and returns a
// short description for the request log.
func (e *Engine) validateBody(route *mock.Route, req *mock.Request, res *mock.Response) string {
	if route.Schema == nil {
		return ""
	}
	schema, err := route.BodySchema()
	if err != nil {
		e.logger.Error("route schema does not compile", "route", route.Label(), "error", err)
		res.Status(http.StatusInternalServerError).JSON(map[string]any{
			"error":   "schema_error",
			"message": "route body schema does not compile",
		})
		return "schema compile: " + err.Error()
	}
	if err := schema.Validate(req.Body); err != nil {
		e.logger.Debug("request body failed schema validation",
			"route", route.Label(), "error", err)
		body := map[string]any{
			"error":   "validation_failed",
			"message": "request body does not match the route schema",
		}
		if violations := schemaViolations(err); len(violations) > 0 {
			body["details"] = violations
		}
		res.Status(http.StatusBadRequest).JSON(body)
		return "body validation failed"
	}
	return ""
}

// schemaViolations flattens a nested schema error into its leaves.
func schemaViolations(err error) []map[string]string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []map[string]string{{"message": err.Error()}}
	}
	var out []map[string]string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out = append(out, map[string]string{
				"location": v.InstanceLocation,
				"message":  v.Message,
			})
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

// respond produces the matched route's response. It returns a short
// error description for the request log, or "" on success.
func (e *Engine) respond(route *mock.Route, req *mock.Request, res *mock.Response) string {
	if route.StatusCode != 0 {
		res.Status(route.StatusCode)
	}

	rctx := &template.Context{
		Method:  req.Method,
		Path:    req.URL,
		Params:  req.Params,
		Query:   req.Query,
		Headers: req.Headers,
		Body:    req.Body,
	}

	for key, value := range route.Headers {
		res.Header(key, e.renderer.Render(value, rctx))
	}

	switch {
	case route.Handler != nil:
		return e.invokeHandler(route, req, res)

	case route.Template != "":
		value, err := template.Generate(route.Template, route.Count)
		if err != nil {
			e.logger.Error("template generation failed",
				"route", route.Label(), "template", route.Template, "error", err)
			res.Status(http.StatusInternalServerError).JSON(map[string]any{
				"error":   "template_error",
				"message": err.Error(),
			})
			return "template: " + err.Error()
		}
		res.JSON(value)

	case route.Body != nil:
		if s, ok := route.Body.(string); ok {
			res.Raw("", []byte(e.renderer.Render(s, rctx)))
		} else {
			res.JSON(e.renderer.RenderValue(route.Body, rctx))
		}

	default:
		// Status-only route, e.g. a scaffolded 204.
		res.End()
	}
	return ""
}

func (e *Engine) invokeHandler(route *mock.Route, req *mock.Request, res *mock.Response) string {
	result, err := e.callHandler(route, req, res)
	if err != nil {
		if !errors.Is(err, errHandlerPanic) {
			e.logger.Error("route handler failed", "route", route.Label(), "error", err)
		}
		if !res.Written() {
			res.Status(http.StatusInternalServerError).JSON(map[string]any{
				"error":   "handler_error",
				"message": "mock handler failed",
			})
		}
		return "handler: " + err.Error()
	}
	if result != nil && !res.Written() {
		res.JSON(result)
	}
	return ""
}

// callHandler runs a code-registered handler with panic isolation; a
// panicking handler must never take the host process down.
func (e *Engine) callHandler(route *mock.Route, req *mock.Request, res *mock.Response) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("route handler panicked",
				"route", route.Label(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = errHandlerPanic
		}
	}()
	return route.Handler(req, res)
}

func (e *Engine) logRequest(start time.Time, r *http.Request, matched string, status int, recorded bool, errMsg string) {
	duration := int(time.Since(start).Milliseconds())
	e.requests.Log(&requestlog.Entry{
		Timestamp:      start,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		RemoteAddr:     r.RemoteAddr,
		Matched:        matched,
		ResponseStatus: status,
		DurationMs:     duration,
		Recorded:       recorded,
		Error:          errMsg,
	})
	e.logger.Info("mock served",
		"method", r.Method,
		"path", r.URL.Path,
		"route", matched,
		"status", status,
		"duration_ms", duration,
	)
}
