package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/pkg/models"
)

func ruleMessage() models.MessageRecord {
	return models.MessageRecord{
		ID: "m1",
		Context: models.SourceContext{
			Workspace: "acme",
			Channel:   "engineering",
			Kind:      models.KindChannel,
			Sender:    "alice",
		},
		Text:       "deploy finished",
		OccurredAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{
			name:       "channel match",
			expression: `channel == "engineering"`,
			want:       true,
		},
		{
			name:       "channel mismatch",
			expression: `channel == "random"`,
			want:       false,
		},
		{
			name:       "text contains",
			expression: `text.contains("deploy")`,
			want:       true,
		},
		{
			name:       "sender prefix",
			expression: `sender.startsWith("al")`,
			want:       true,
		},
		{
			name:       "kind check",
			expression: `kind == "direct-message"`,
			want:       false,
		},
		{
			name:       "compound expression",
			expression: `channel == "engineering" && !text.contains("spam")`,
			want:       true,
		},
		{
			name:       "timestamp comparison",
			expression: `occurred_at > timestamp("2024-01-01T00:00:00Z")`,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.Evaluate(context.Background(), tt.expression, ruleMessage())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateInvalidExpression(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	_, err = evaluator.Evaluate(context.Background(), `channel ==`, ruleMessage())
	assert.Error(t, err)
}

func TestValidateExpression(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	assert.NoError(t, evaluator.ValidateExpression(`channel == "general"`))
	assert.Error(t, evaluator.ValidateExpression(`channel ==`), "syntax error must be rejected")
	assert.Error(t, evaluator.ValidateExpression(`channel`), "non-bool result must be rejected")
	assert.Error(t, evaluator.ValidateExpression(`unknown_field == "x"`), "unknown variable must be rejected")
}
