package rules

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"mailbridge/pkg/models"
)

// Evaluator compiles and runs CEL filter expressions against message
// records. Expressions see the record's flattened fields.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("workspace", cel.StringType),
		cel.Variable("channel", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("sender", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("occurred_at", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// ValidateExpression rejects expressions that do not compile or do not
// produce a bool.
func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

func (e *Evaluator) Evaluate(ctx context.Context, expression string, msg models.MessageRecord) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	vars := map[string]interface{}{
		"id":          msg.ID,
		"workspace":   msg.Context.Workspace,
		"channel":     msg.Context.Channel,
		"kind":        string(msg.Context.Kind),
		"sender":      msg.Context.Sender,
		"text":        msg.Text,
		"occurred_at": msg.OccurredAt,
	}

	result, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
