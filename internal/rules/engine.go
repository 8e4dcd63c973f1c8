package rules

import (
	"context"
	"fmt"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/logger"
	"mailbridge/pkg/models"
)

// Engine applies the configured CEL filter expressions to a record after
// the channel allowlist check. Every expression must pass for the record
// to proceed.
type Engine struct {
	evaluator   *Evaluator
	expressions []string
	onError     string
	logger      logger.Logger
}

// NewEngine validates every expression up front so a bad rule fails at
// startup instead of silently dropping traffic later.
func NewEngine(cfg config.RulesConfig, log logger.Logger) (*Engine, error) {
	evaluator, err := NewEvaluator()
	if err != nil {
		return nil, err
	}

	for _, expr := range cfg.Expressions {
		if err := evaluator.ValidateExpression(expr); err != nil {
			return nil, fmt.Errorf("invalid filter rule %q: %w", expr, err)
		}
	}

	return &Engine{
		evaluator:   evaluator,
		expressions: append([]string(nil), cfg.Expressions...),
		onError:     cfg.OnError,
		logger:      log,
	}, nil
}

// Empty reports whether any expressions are configured.
func (e *Engine) Empty() bool {
	return len(e.expressions) == 0
}

// Allow evaluates all expressions against the record. An evaluation error
// follows the configured fallback: allow skips the failing rule, deny
// filters the message.
func (e *Engine) Allow(ctx context.Context, msg models.MessageRecord) bool {
	for _, expr := range e.expressions {
		passed, err := e.evaluator.Evaluate(ctx, expr, msg)
		if err != nil {
			e.logger.ErrorwCtx(ctx, "Rule evaluation error",
				"rule", expr,
				"error", err,
			)
			if e.onError == constants.FallbackAllow {
				continue
			}
			return false
		}

		if !passed {
			e.logger.DebugwCtx(ctx, "Rule filtered message",
				"rule", expr,
			)
			return false
		}
	}

	return true
}
