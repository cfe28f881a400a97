package template

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/devmock/devmock/internal/id"
	"github.com/devmock/devmock/pkg/logging"
)

// placeholderRegex matches {{expression}} patterns with optional whitespace.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Context holds the per-request data placeholders resolve against.
// Header names are expected in canonical form.
type Context struct {
	Method  string
	Path    string
	Params  map[string]string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Renderer substitutes {{...}} placeholders in response bodies with
// per-request values. A Renderer is stateless and safe for concurrent use.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer returns a renderer with logging disabled.
func NewRenderer() *Renderer {
	return &Renderer{logger: logging.Nop()}
}

// SetLogger replaces the renderer's logger. Unknown placeholders are
// reported at debug level.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Render evaluates every {{expression}} in s against ctx. Unknown
// expressions render as empty strings so a bad placeholder never breaks
// a response.
func (r *Renderer) Render(s string, ctx *Context) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		inner := placeholderRegex.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		return r.evaluate(strings.TrimSpace(inner[1]), ctx)
	})
}

// RenderValue walks a decoded JSON value and renders every string leaf.
// Maps and slices are rebuilt so the input is never mutated; other
// non-string values pass through unchanged.
func (r *Renderer) RenderValue(v any, ctx *Context) any {
	switch val := v.(type) {
	case string:
		return r.Render(val, ctx)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.RenderValue(item, ctx)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.RenderValue(item, ctx)
		}
		return out
	default:
		return v
	}
}

// evaluate resolves a single placeholder expression.
func (r *Renderer) evaluate(expr string, ctx *Context) string {
	switch expr {
	case "now":
		return time.Now().Format(time.RFC3339)
	case "timestamp":
		return strconv.FormatInt(time.Now().Unix(), 10)
	case "uuid":
		return id.UUID()
	case "method":
		if ctx != nil {
			return ctx.Method
		}
		return ""
	case "path":
		if ctx != nil {
			return ctx.Path
		}
		return ""
	}

	if ctx != nil {
		if strings.HasPrefix(expr, "params.") {
			return ctx.Params[expr[7:]]
		}
		if strings.HasPrefix(expr, "query.") {
			return ctx.Query[expr[6:]]
		}
		if strings.HasPrefix(expr, "headers.") {
			return ctx.Headers[http.CanonicalHeaderKey(expr[8:])]
		}
		if strings.HasPrefix(expr, "body.") {
			return bodyField(ctx.Body, expr[5:])
		}
	}

	r.logger.Debug("unknown template placeholder", "expr", expr)
	return ""
}

// bodyField extracts a nested field from the parsed request body using
// dot notation, e.g. "user.name" or "items.0.id".
func bodyField(body any, path string) string {
	current := body
	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[part]
			if !ok {
				return ""
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return ""
			}
			current = v[idx]
		default:
			return ""
		}
	}
	return formatValue(current)
}

// formatValue converts a resolved value to its string representation.
func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
