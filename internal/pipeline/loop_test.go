package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/internal/logger"
	"mailbridge/pkg/models"
)

// scriptedSource replays a fixed sequence of fetch results.
type scriptedSource struct {
	batches [][]models.MessageRecord
	errs    []error
	calls   int
}

func (s *scriptedSource) Fetch(_ context.Context, _ int) ([]models.MessageRecord, error) {
	i := s.calls
	s.calls++

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}

	if i < len(s.batches) {
		return s.batches[i], nil
	}
	return nil, nil
}

func TestRunOnce(t *testing.T) {
	s := &recordingSink{}
	p, _ := newTestPipeline(testConfig(), s)
	src := &scriptedSource{
		batches: [][]models.MessageRecord{
			{testMessage("m1", "general"), testMessage("m2", "general")},
		},
	}
	loop := NewLoop(p, src, time.Second, 5, logger.NopLogger())

	summary, err := loop.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 2, s.callCount())
}

func TestRunOnceSourceError(t *testing.T) {
	s := &recordingSink{}
	p, _ := newTestPipeline(testConfig(), s)
	src := &scriptedSource{errs: []error{errors.New("workspace unreachable")}}
	loop := NewLoop(p, src, time.Second, 5, logger.NopLogger())

	_, err := loop.RunOnce(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, s.callCount())
}

func TestLoopSurvivesFailedIteration(t *testing.T) {
	s := &recordingSink{}
	p, _ := newTestPipeline(testConfig(), s)
	src := &scriptedSource{
		errs: []error{errors.New("workspace unreachable"), nil},
		batches: [][]models.MessageRecord{
			nil,
			{testMessage("m1", "general")},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(p, src, time.Second, 5, logger.NopLogger())

	var sleeps []time.Duration
	loop.sleep = func(_ context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
		if len(sleeps) == 2 {
			cancel()
		}
	}

	err := loop.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.callCount(), "the iteration after a failure must still process messages")
	require.Len(t, sleeps, 2)
	assert.Equal(t, loop.cooldown, sleeps[0], "a failed iteration waits out the error cooldown")
	assert.Equal(t, loop.interval, sleeps[1], "a clean iteration waits the regular interval")
}

func TestLoopStopsOnCancelledContext(t *testing.T) {
	s := &recordingSink{}
	p, _ := newTestPipeline(testConfig(), s)
	src := &scriptedSource{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewLoop(p, src, time.Second, 5, logger.NopLogger())
	err := loop.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.calls)
}
