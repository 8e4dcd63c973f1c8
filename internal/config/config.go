package config

import "time"

type Config struct {
	Forwarding     ForwardingConfig     `mapstructure:"forwarding"`
	Source         SourceConfig         `mapstructure:"source"`
	SMTP           SMTPConfig           `mapstructure:"smtp"`
	Ledger         LedgerConfig         `mapstructure:"ledger"`
	Rules          RulesConfig          `mapstructure:"rules"`
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// ForwardingConfig is the behavior of the pipeline itself.
type ForwardingConfig struct {
	RecipientAddress     string   `mapstructure:"recipient_address"`
	CheckIntervalSeconds int      `mapstructure:"check_interval_seconds"`
	TestMode             bool     `mapstructure:"test_mode"`
	MaxMessagesPerCheck  int      `mapstructure:"max_messages_per_check"`
	ChannelAllowlist     []string `mapstructure:"channel_allowlist"`
	MaxBodyLength        int      `mapstructure:"max_body_length"`
	// SendRatePerSecond caps outbound emails; zero disables the limiter.
	SendRatePerSecond float64 `mapstructure:"send_rate_per_second"`
	SendBurst         int     `mapstructure:"send_burst"`
}

func (c ForwardingConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

type SourceConfig struct {
	Type  string            `mapstructure:"type"`
	Kafka KafkaSourceConfig `mapstructure:"kafka"`
}

type KafkaSourceConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topic   string   `mapstructure:"topic"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LedgerConfig struct {
	Type       string      `mapstructure:"type"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	OnError    string      `mapstructure:"on_error"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RulesConfig struct {
	Expressions []string `mapstructure:"expressions"`
	OnError     string   `mapstructure:"on_error"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}
