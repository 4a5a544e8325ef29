// Package policy provides the CEL-Go based triage layer that runs
// after scoring. A triage expression can flag a prediction for manual
// review; it never alters the probability or the label.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/fraudlens/fraudlens/internal/domain"
)

// Engine evaluates a compiled triage expression against scored
// transactions. An Engine is immutable after construction and safe for
// concurrent use.
type Engine struct {
	program cel.Program
}

// NewEngine compiles a triage expression. The expression must return
// bool and may reference the scored transaction through these
// variables:
//
//	probability  double  calibrated fraud probability
//	prediction   string  "FRAUD" or "LEGIT"
//	amount       double  raw transaction amount
//	time         double  seconds elapsed since the reference point
//
// An empty expression disables triage; Review then stays absent from
// results.
func NewEngine(expression string) (*Engine, error) {
	if expression == "" {
		return &Engine{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("probability", cel.DoubleType),
		cel.Variable("prediction", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("time", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile triage expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("triage expression must return bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage program: %w", err)
	}

	return &Engine{program: program}, nil
}

// Enabled reports whether a triage expression is loaded.
func (e *Engine) Enabled() bool {
	return e.program != nil
}

// Review evaluates the triage expression for a scored transaction.
func (e *Engine) Review(result *domain.PredictionResult, amount, txTime float64) (bool, error) {
	if e.program == nil {
		return false, nil
	}

	out, _, err := e.program.Eval(map[string]any{
		"probability": result.FraudProbability,
		"prediction":  result.Prediction,
		"amount":      amount,
		"time":        txTime,
	})
	if err != nil {
		return false, fmt.Errorf("triage evaluation failed: %w", err)
	}

	flagged, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("triage expression returned non-bool %T", out)
	}
	return bool(flagged), nil
}
