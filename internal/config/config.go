package config

// Config represents the application configuration
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Outline  OutlineConfig  `mapstructure:"outline"`
	LogLevel string         `mapstructure:"log_level"`
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	AllowedChatID int64  `mapstructure:"allowed_chat_id"`
	AdminID       int64  `mapstructure:"admin_id"`
}

// OutlineConfig holds the configuration for the Outline management API
type OutlineConfig struct {
	APIURL         string `mapstructure:"api_url"`
	Fingerprint    string `mapstructure:"fingerprint"`
	TrafficLimitGB int64  `mapstructure:"traffic_limit_gb"`
}
