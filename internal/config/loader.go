package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("log_level", "info")
	v.SetDefault("TRAFFIC_LIMIT_GB", 200)

	// Define environment variables
	v.BindEnv("TELEGRAM_BOT_TOKEN")
	v.BindEnv("ALLOWED_CHAT_ID")
	v.BindEnv("ADMIN_USER_ID")
	v.BindEnv("OUTLINE_API_URL")
	v.BindEnv("OUTLINE_API_FINGERPRINT")
	v.BindEnv("TRAFFIC_LIMIT_GB")

	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Telegram: TelegramConfig{
			Token:         strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
			AllowedChatID: v.GetInt64("ALLOWED_CHAT_ID"),
			AdminID:       v.GetInt64("ADMIN_USER_ID"),
		},
		Outline: OutlineConfig{
			APIURL:         strings.TrimRight(strings.TrimSpace(v.GetString("OUTLINE_API_URL")), "/"),
			Fingerprint:    strings.TrimSpace(v.GetString("OUTLINE_API_FINGERPRINT")),
			TrafficLimitGB: v.GetInt64("TRAFFIC_LIMIT_GB"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.Telegram.AllowedChatID == 0 {
		return errors.New("ALLOWED_CHAT_ID is required")
	}

	if cfg.Telegram.AdminID == 0 {
		return errors.New("ADMIN_USER_ID is required")
	}

	if cfg.Outline.APIURL == "" {
		return errors.New("OUTLINE_API_URL is required")
	}

	if cfg.Outline.TrafficLimitGB <= 0 {
		return errors.New("TRAFFIC_LIMIT_GB must be positive")
	}

	return nil
}
