package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerHasSeen(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	seen, err := led.HasSeen(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, led.Commit(ctx, "m1"))

	seen, err = led.HasSeen(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = led.HasSeen(ctx, "m2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryLedgerCommitIdempotent(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	require.NoError(t, led.Commit(ctx, "m1"))
	require.NoError(t, led.Commit(ctx, "m1"))

	size, err := led.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestMemoryLedgerSize(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, led.Commit(ctx, fmt.Sprintf("m%d", i)))
	}

	size, err := led.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, size)
}

func TestMemoryLedgerConcurrentCommit(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = led.Commit(ctx, fmt.Sprintf("m%d", n%10))
		}(i)
	}
	wg.Wait()

	size, err := led.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, size)
}

func TestLedgerKeyIsStable(t *testing.T) {
	assert.Equal(t, ledgerKey("m1"), ledgerKey("m1"))
	assert.NotEqual(t, ledgerKey("m1"), ledgerKey("m2"))
	assert.Contains(t, ledgerKey("m1"), "forwarded:")
}
