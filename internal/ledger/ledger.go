package ledger

import (
	"context"
	"sync"
)

// Ledger tracks which message identifiers have already been forwarded.
// Commit is idempotent; committing the same identifier twice has no
// additional effect.
type Ledger interface {
	HasSeen(ctx context.Context, id string) (bool, error)
	Commit(ctx context.Context, id string) error
}

// Sizer is implemented by ledgers that can report an approximate entry
// count for the ledger size gauge.
type Sizer interface {
	Size(ctx context.Context) (int, error)
}

// MemoryLedger is the baseline process-lifetime ledger. It grows without
// bound; the redis ledger covers deployments that need eviction.
type MemoryLedger struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]struct{})}
}

func (l *MemoryLedger) HasSeen(_ context.Context, id string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[id]
	return ok, nil
}

func (l *MemoryLedger) Commit(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[id] = struct{}{}
	return nil
}

func (l *MemoryLedger) Size(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen), nil
}
