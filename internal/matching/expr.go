package matching

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CompileCondition compiles a route when-expression. The expression must
// evaluate to a boolean; variables resolve dynamically against the
// request environment, and unknown variables evaluate to nil rather than
// failing compilation.
func CompileCondition(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", src, err)
	}
	return program, nil
}

// EvalCondition runs a compiled when-expression against a request
// environment. Evaluation errors are reported so the caller can log
// them; the route is skipped either way.
func EvalCondition(program *vm.Program, env map[string]any) (bool, error) {
	result, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// ConditionEnv builds the variable environment a when-expression sees.
func ConditionEnv(method, path string, params, query, headers map[string]string, body any) map[string]any {
	return map[string]any{
		"method":  method,
		"path":    path,
		"params":  params,
		"query":   query,
		"headers": headers,
		"body":    body,
	}
}
