package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/ledger"
	"mailbridge/internal/logger"
	"mailbridge/pkg/models"
)

type sinkCall struct {
	to      string
	subject string
	body    string
}

// recordingSink captures every call and replays scripted outcomes.
// When the script runs out it answers Sent.
type recordingSink struct {
	mu       sync.Mutex
	calls    []sinkCall
	outcomes []models.DeliveryOutcome
}

func (s *recordingSink) Send(_ context.Context, to, subject, body string) models.DeliveryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, sinkCall{to: to, subject: subject, body: body})
	if len(s.outcomes) > 0 {
		out := s.outcomes[0]
		s.outcomes = s.outcomes[1:]
		return out
	}
	return models.Sent("provider-1")
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type failingLedger struct{}

func (failingLedger) HasSeen(context.Context, string) (bool, error) {
	return false, errors.New("ledger backend down")
}

func (failingLedger) Commit(context.Context, string) error {
	return errors.New("ledger backend down")
}

func testConfig() config.ForwardingConfig {
	return config.ForwardingConfig{
		RecipientAddress:     "inbox@example.com",
		CheckIntervalSeconds: 15,
		MaxMessagesPerCheck:  5,
	}
}

func testMessage(id, channel string) models.MessageRecord {
	return models.MessageRecord{
		ID: id,
		Context: models.SourceContext{
			Workspace: "acme",
			Channel:   channel,
			Kind:      models.KindChannel,
			Sender:    "alice",
		},
		Text:       "hello",
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestPipeline(cfg config.ForwardingConfig, s *recordingSink) (*Pipeline, *ledger.MemoryLedger) {
	led := ledger.NewMemoryLedger()
	p := New(cfg, s, led, nil, constants.FallbackDeny, logger.NopLogger())
	return p, led
}

func TestProcessOneDeliversAndCommits(t *testing.T) {
	s := &recordingSink{}
	p, led := newTestPipeline(testConfig(), s)

	result := p.ProcessOne(context.Background(), testMessage("m1", "general"))

	assert.Equal(t, models.StatusDelivered, result.Status)
	assert.Equal(t, models.OutcomeSent, result.Outcome.Status)

	seen, err := led.HasSeen(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.Equal(t, 1, s.callCount())
	assert.Equal(t, "inbox@example.com", s.calls[0].to)
}

func TestProcessOneAtMostOnce(t *testing.T) {
	s := &recordingSink{}
	p, _ := newTestPipeline(testConfig(), s)
	msg := testMessage("m1", "general")

	first := p.ProcessOne(context.Background(), msg)
	second := p.ProcessOne(context.Background(), msg)
	third := p.ProcessOne(context.Background(), msg)

	assert.Equal(t, models.StatusDelivered, first.Status)
	assert.Equal(t, models.StatusSkipped, second.Status)
	assert.Equal(t, models.StatusSkipped, third.Status)
	assert.Equal(t, 1, s.callCount())
}

func TestProcessOneChannelAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.ChannelAllowlist = []string{"engineering"}

	tests := []struct {
		name       string
		channel    string
		wantStatus models.ProcessingStatus
		wantCalls  int
	}{
		{
			name:       "channel outside allowlist is filtered",
			channel:    "random",
			wantStatus: models.StatusFiltered,
			wantCalls:  0,
		},
		{
			name:       "allowlisted channel is delivered",
			channel:    "engineering",
			wantStatus: models.StatusDelivered,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSink{}
			p, _ := newTestPipeline(cfg, s)

			result := p.ProcessOne(context.Background(), testMessage("m1", tt.channel))

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantCalls, s.callCount())
		})
	}
}

func TestProcessOneFailureDoesNotCommit(t *testing.T) {
	s := &recordingSink{
		outcomes: []models.DeliveryOutcome{
			models.Failed(errors.New("smtp 451 temporary failure")),
		},
	}
	p, led := newTestPipeline(testConfig(), s)
	msg := testMessage("m1", "general")

	result := p.ProcessOne(context.Background(), msg)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Error(t, result.Err)

	seen, err := led.HasSeen(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, seen, "failed delivery must not commit the identifier")

	// The identifier stays eligible; a later pass delivers it.
	result = p.ProcessOne(context.Background(), msg)
	assert.Equal(t, models.StatusDelivered, result.Status)
	assert.Equal(t, 2, s.callCount())
}

func TestProcessOneRejectsInvalidRecord(t *testing.T) {
	tests := []struct {
		name string
		msg  models.MessageRecord
	}{
		{
			name: "missing id",
			msg:  models.MessageRecord{Text: "hello"},
		},
		{
			name: "missing text",
			msg:  models.MessageRecord{ID: "m1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSink{}
			p, _ := newTestPipeline(testConfig(), s)

			result := p.ProcessOne(context.Background(), tt.msg)

			assert.Equal(t, models.StatusFiltered, result.Status)
			assert.Equal(t, 0, s.callCount())
		})
	}
}

func TestProcessBatchIndependence(t *testing.T) {
	s := &recordingSink{
		outcomes: []models.DeliveryOutcome{
			models.Sent("p1"),
			models.Failed(errors.New("smtp connection reset")),
			models.Sent("p3"),
		},
	}
	p, _ := newTestPipeline(testConfig(), s)

	batch := []models.MessageRecord{
		testMessage("m1", "general"),
		testMessage("m2", "general"),
		testMessage("m3", "general"),
	}

	summary := p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Filtered)
	assert.Equal(t, 3, s.callCount(), "a failed delivery must not abort the batch")
}

func TestProcessOneSimulatedScenario(t *testing.T) {
	s := &recordingSink{
		outcomes: []models.DeliveryOutcome{models.Simulated("sim-1")},
	}
	cfg := testConfig()
	cfg.TestMode = true
	p, led := newTestPipeline(cfg, s)

	msg := models.MessageRecord{
		ID: "m1",
		Context: models.SourceContext{
			Channel: "general",
			Kind:    models.KindChannel,
			Sender:  "alice",
		},
		Text:       "hello",
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	result := p.ProcessOne(context.Background(), msg)

	require.Equal(t, models.StatusDelivered, result.Status)
	assert.Equal(t, models.OutcomeSimulated, result.Outcome.Status)
	require.Equal(t, 1, s.callCount())
	assert.Equal(t, "[Bridge] #general - alice", s.calls[0].subject)

	seen, err := led.HasSeen(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Same message, same ledger: skipped, sink never called again.
	result = p.ProcessOne(context.Background(), msg)
	assert.Equal(t, models.StatusSkipped, result.Status)
	assert.Equal(t, 1, s.callCount())
}

func TestProcessOneLedgerErrorFallback(t *testing.T) {
	tests := []struct {
		name       string
		onError    string
		wantStatus models.ProcessingStatus
		wantCalls  int
	}{
		{
			name:       "deny fails the message without sending",
			onError:    constants.FallbackDeny,
			wantStatus: models.StatusFailed,
			wantCalls:  0,
		},
		{
			name:       "allow proceeds as unseen",
			onError:    constants.FallbackAllow,
			wantStatus: models.StatusDelivered,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSink{}
			p := New(testConfig(), s, failingLedger{}, nil, tt.onError, logger.NopLogger())

			result := p.ProcessOne(context.Background(), testMessage("m1", "general"))

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantCalls, s.callCount())
		})
	}
}
