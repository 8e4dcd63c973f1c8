package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"mailbridge/internal/constants"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("forwarding.check_interval_seconds", constants.DefaultCheckIntervalSeconds)
	viper.SetDefault("forwarding.max_messages_per_check", constants.DefaultMaxMessagesPerCheck)
	viper.SetDefault("source.type", constants.SourceTypeStatic)
	viper.SetDefault("smtp.port", 465)
	viper.SetDefault("ledger.type", constants.LedgerTypeMemory)
	viper.SetDefault("ledger.ttl_seconds", constants.DefaultLedgerTTLSeconds)
	viper.SetDefault("ledger.on_error", constants.FallbackDeny)
	viper.SetDefault("ledger.redis.port", 6379)
	viper.SetDefault("rules.on_error", constants.FallbackDeny)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.level", "info")
}

func bindEnvVariables() {
	viper.BindEnv("forwarding.recipient_address", "FORWARDING_RECIPIENT_ADDRESS")
	viper.BindEnv("forwarding.check_interval_seconds", "FORWARDING_CHECK_INTERVAL_SECONDS")
	viper.BindEnv("forwarding.test_mode", "FORWARDING_TEST_MODE")
	viper.BindEnv("forwarding.max_messages_per_check", "FORWARDING_MAX_MESSAGES_PER_CHECK")

	viper.BindEnv("source.type", "SOURCE_TYPE")
	viper.BindEnv("source.kafka.brokers", "SOURCE_KAFKA_BROKERS")
	viper.BindEnv("source.kafka.group_id", "SOURCE_KAFKA_GROUP_ID")
	viper.BindEnv("source.kafka.topic", "SOURCE_KAFKA_TOPIC")

	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.username", "SMTP_USERNAME")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("smtp.from", "SMTP_FROM")

	viper.BindEnv("ledger.type", "LEDGER_TYPE")
	viper.BindEnv("ledger.redis.host", "LEDGER_REDIS_HOST")
	viper.BindEnv("ledger.redis.port", "LEDGER_REDIS_PORT")
	viper.BindEnv("ledger.redis.password", "LEDGER_REDIS_PASSWORD")
	viper.BindEnv("ledger.redis.db", "LEDGER_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("SOURCE_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Source.Kafka.Brokers = brokers
		}
	}

	return nil
}
