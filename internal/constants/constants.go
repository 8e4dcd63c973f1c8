package constants

import "time"

const (
	LedgerKeyPrefix = "forwarded:"
)

const (
	DefaultCheckIntervalSeconds = 15
	DefaultMaxMessagesPerCheck  = 5
	DefaultLedgerTTLSeconds     = 86400
)

// ErrorCooldown is how long the loop waits after a failed iteration before
// trying again, instead of the regular check interval.
const ErrorCooldown = 30 * time.Second

const (
	KafkaMinBytes     = 10e3
	KafkaMaxBytes     = 10e6
	KafkaFetchTimeout = 2 * time.Second
)

const (
	SMTPDialTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const TruncationMarker = "..."

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	SourceTypeKafka  = "kafka"
	SourceTypeStatic = "static"
)

const (
	LedgerTypeMemory = "memory"
	LedgerTypeRedis  = "redis"
)
