package ingest

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// AcceptRule is a compiled CEL predicate over a normalized row. The row is
// bound to `row` as a map keyed by storage name, extras included:
//
//	row.orderType != "Sample" && row.status != "Cancelled"
type AcceptRule struct {
	expr string
	prg  cel.Program
}

// NewAcceptRule compiles expr. The expression must evaluate to a bool.
func NewAcceptRule(expr string) (*AcceptRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("rule %q must return bool, got %s", expr, t)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &AcceptRule{expr: expr, prg: prg}, nil
}

func (r *AcceptRule) String() string { return r.expr }

// Accept evaluates the rule against rec.
func (r *AcceptRule) Accept(rec model.OrderRecord) (bool, error) {
	out, _, err := r.prg.Eval(map[string]interface{}{"row": rec.AsMap()})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("rule returned %T, expected bool", out.Value())
	}
	return ok, nil
}
