package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// HistoryWindow bounds how many recent messages are replayed on connect.
	HistoryWindow int `mapstructure:"history_window" yaml:"history_window"`

	// Admins are usernames granted moderation commands in addition to
	// users registered with the admin role.
	Admins []string `mapstructure:"admins" yaml:"admins"`

	// DefaultMuteSeconds applies when /mute is issued without a duration.
	DefaultMuteSeconds int `mapstructure:"default_mute_seconds" yaml:"default_mute_seconds"`

	// ChatRateLimit caps chat lines per connection per minute. 0 disables.
	ChatRateLimit int `mapstructure:"chat_rate_limit" yaml:"chat_rate_limit"`

	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		DatabasePath:       "modchat.sqlite",
		JWTSecret:          "change-me",
		JWTIssuer:          "modchat",
		JWTAudience:        "modchat-clients",
		JWTTTL:             24 * time.Hour,
		HistoryWindow:      100,
		DefaultMuteSeconds: 60,
		ChatRateLimit:      0,
		MaxMessageBytes:    1 << 20,
		LogLevel:           "info",
	}
}
