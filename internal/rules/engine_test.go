package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/logger"
)

func TestNewEngineRejectsBadRule(t *testing.T) {
	_, err := NewEngine(config.RulesConfig{
		Expressions: []string{`channel == "general"`, `text ==`},
	}, logger.NopLogger())

	assert.Error(t, err)
}

func TestEngineAllow(t *testing.T) {
	tests := []struct {
		name        string
		expressions []string
		want        bool
	}{
		{
			name: "no rules allow everything",
			want: true,
		},
		{
			name:        "all rules pass",
			expressions: []string{`channel == "engineering"`, `sender == "alice"`},
			want:        true,
		},
		{
			name:        "one failing rule filters",
			expressions: []string{`channel == "engineering"`, `sender == "bob"`},
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(config.RulesConfig{
				Expressions: tt.expressions,
				OnError:     constants.FallbackDeny,
			}, logger.NopLogger())
			require.NoError(t, err)

			assert.Equal(t, tt.want, engine.Allow(context.Background(), ruleMessage()))
		})
	}
}

func TestEngineEmpty(t *testing.T) {
	engine, err := NewEngine(config.RulesConfig{}, logger.NopLogger())
	require.NoError(t, err)
	assert.True(t, engine.Empty())

	engine, err = NewEngine(config.RulesConfig{
		Expressions: []string{`channel == "general"`},
	}, logger.NopLogger())
	require.NoError(t, err)
	assert.False(t, engine.Empty())
}
