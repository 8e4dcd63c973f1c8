package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mailbridge/internal/constants"
)

// RedisLedger persists forwarded identifiers in Redis with a TTL, giving
// the ledger time-windowed eviction and survival across restarts.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) HasSeen(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS failed: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Commit(ctx context.Context, id string) error {
	if err := l.client.Set(ctx, ledgerKey(id), time.Now().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (l *RedisLedger) Size(ctx context.Context) (int, error) {
	iter := l.client.Scan(ctx, 0, constants.LedgerKeyPrefix+"*", 0).Iterator()
	count := 0
	for iter.Next(ctx) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis SCAN failed: %w", err)
	}
	return count, nil
}

// ledgerKey hashes the identifier so arbitrary source IDs never exceed
// Redis key size conventions.
func ledgerKey(id string) string {
	sum := sha256.Sum256([]byte(id))
	return constants.LedgerKeyPrefix + hex.EncodeToString(sum[:])
}
