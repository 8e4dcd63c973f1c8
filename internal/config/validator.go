package config

import (
	"fmt"

	"mailbridge/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validate rejects configurations the pipeline must not start with. A
// missing recipient or a non-positive interval is fatal before the loop
// runs, never discovered mid-flight.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateForwarding(cfg.Forwarding); err != nil {
		errs = append(errs, err)
	}

	if err := validateSource(cfg.Source); err != nil {
		errs = append(errs, err)
	}

	if !cfg.Forwarding.TestMode {
		if err := validateSMTP(cfg.SMTP); err != nil {
			errs = append(errs, err)
		}
	}

	if err := validateLedger(cfg.Ledger); err != nil {
		errs = append(errs, err)
	}

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateForwarding(cfg ForwardingConfig) error {
	if cfg.RecipientAddress == "" {
		return &ValidationError{
			Field:   "forwarding.recipient_address",
			Message: "recipient address is required",
		}
	}

	if cfg.CheckIntervalSeconds <= 0 {
		return &ValidationError{
			Field:   "forwarding.check_interval_seconds",
			Message: fmt.Sprintf("check interval must be positive, got %d", cfg.CheckIntervalSeconds),
		}
	}

	if cfg.MaxMessagesPerCheck <= 0 {
		return &ValidationError{
			Field:   "forwarding.max_messages_per_check",
			Message: fmt.Sprintf("max messages per check must be positive, got %d", cfg.MaxMessagesPerCheck),
		}
	}

	if cfg.MaxBodyLength < 0 {
		return &ValidationError{
			Field:   "forwarding.max_body_length",
			Message: "max body length cannot be negative",
		}
	}

	if cfg.SendRatePerSecond < 0 {
		return &ValidationError{
			Field:   "forwarding.send_rate_per_second",
			Message: "send rate cannot be negative",
		}
	}

	return nil
}

func validateSource(cfg SourceConfig) error {
	switch cfg.Type {
	case constants.SourceTypeStatic:
		return nil
	case constants.SourceTypeKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "source.kafka.brokers",
				Message: "at least one Kafka broker is required",
			}
		}
		if cfg.Kafka.GroupID == "" {
			return &ValidationError{
				Field:   "source.kafka.group_id",
				Message: "Kafka consumer group ID is required",
			}
		}
		if cfg.Kafka.Topic == "" {
			return &ValidationError{
				Field:   "source.kafka.topic",
				Message: "Kafka topic is required",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "source.type",
			Message: fmt.Sprintf("unknown source type: %s (supported: kafka, static)", cfg.Type),
		}
	}
}

func validateSMTP(cfg SMTPConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "smtp.host",
			Message: "SMTP host is required unless test_mode is enabled",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "smtp.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.From == "" {
		return &ValidationError{
			Field:   "smtp.from",
			Message: "SMTP sender address is required unless test_mode is enabled",
		}
	}

	return nil
}

func validateLedger(cfg LedgerConfig) error {
	switch cfg.Type {
	case constants.LedgerTypeMemory:
	case constants.LedgerTypeRedis:
		if cfg.Redis.Host == "" {
			return &ValidationError{
				Field:   "ledger.redis.host",
				Message: "Redis host is required for the redis ledger",
			}
		}
		if cfg.TTLSeconds <= 0 {
			return &ValidationError{
				Field:   "ledger.ttl_seconds",
				Message: "ledger TTL must be positive",
			}
		}
	default:
		return &ValidationError{
			Field:   "ledger.type",
			Message: fmt.Sprintf("unknown ledger type: %s (supported: memory, redis)", cfg.Type),
		}
	}

	switch cfg.OnError {
	case constants.FallbackAllow, constants.FallbackDeny:
		return nil
	default:
		return &ValidationError{
			Field:   "ledger.on_error",
			Message: fmt.Sprintf("unknown fallback: %s (supported: allow, deny)", cfg.OnError),
		}
	}
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}
