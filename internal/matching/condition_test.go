package matching

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchMethod(t *testing.T) {
	tests := []struct {
		name          string
		routeMethod   string
		requestMethod string
		want          bool
	}{
		{"empty matches GET", "", "GET", true},
		{"empty matches DELETE", "", "DELETE", true},
		{"same verb", "GET", "GET", true},
		{"case-insensitive route", "get", "GET", true},
		{"case-insensitive request", "POST", "post", true},
		{"different verb", "GET", "POST", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchMethod(tt.routeMethod, tt.requestMethod))
		})
	}
}

func TestMatchQuery(t *testing.T) {
	actual := map[string]string{"page": "2", "sort": "name"}

	assert.True(t, MatchQuery(nil, actual))
	assert.True(t, MatchQuery(map[string]string{"page": "2"}, actual))
	assert.True(t, MatchQuery(map[string]string{"page": "2", "sort": "name"}, actual))
	assert.False(t, MatchQuery(map[string]string{"page": "3"}, actual))
	assert.False(t, MatchQuery(map[string]string{"missing": "x"}, actual))
}

func TestMatchHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Request-Id", "abc")
	headers.Set("Accept", "application/json")

	assert.True(t, MatchHeaders(nil, headers))
	assert.True(t, MatchHeaders(map[string]string{"x-request-id": "abc"}, headers))
	assert.True(t, MatchHeaders(map[string]string{"Accept": "application/json"}, headers))
	assert.False(t, MatchHeaders(map[string]string{"X-Request-Id": "xyz"}, headers))
	assert.False(t, MatchHeaders(map[string]string{"X-Missing": "1"}, headers))
}

func TestCompileCondition(t *testing.T) {
	t.Run("valid boolean expression", func(t *testing.T) {
		program, err := CompileCondition(`method == "GET"`)
		require.NoError(t, err)
		assert.NotNil(t, program)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := CompileCondition(`method ==`)
		assert.Error(t, err)
	})
}

func TestEvalCondition(t *testing.T) {
	env := ConditionEnv(
		"GET",
		"/api/users/42",
		map[string]string{"id": "42"},
		map[string]string{"debug": "1"},
		map[string]string{"Accept": "application/json"},
		map[string]any{"role": "admin"},
	)

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"method equality", `method == "GET"`, true},
		{"method inequality", `method == "POST"`, false},
		{"param access", `params.id == "42"`, true},
		{"query access", `query.debug == "1"`, true},
		{"body field", `body.role == "admin"`, true},
		{"path contains", `path contains "/users/"`, true},
		{"compound", `method == "GET" && params.id != ""`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := CompileCondition(tt.src)
			require.NoError(t, err)

			got, err := EvalCondition(program, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
