package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// JWT settings for the handshake bearer credential.
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// RTC admission token settings.
	RTCAppID    string        `mapstructure:"rtc_app_id" yaml:"rtc_app_id"`
	RTCSecret   string        `mapstructure:"rtc_secret" yaml:"rtc_secret"`
	RTCTokenTTL time.Duration `mapstructure:"rtc_token_ttl" yaml:"rtc_token_ttl"`

	// Liveness sweep settings.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// Media backend. "none" returns only the admission token;
	// "livekit" additionally mints LiveKit join credentials.
	MediaMode     string `mapstructure:"media_mode" yaml:"media_mode"`
	LiveKitURL    string `mapstructure:"livekit_url" yaml:"livekit_url"`
	LiveKitKey    string `mapstructure:"livekit_key" yaml:"livekit_key"`
	LiveKitSecret string `mapstructure:"livekit_secret" yaml:"livekit_secret"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "telecare.db",
		JWTIssuer:         "telecare",
		JWTAudience:       "telecare-clients",
		JWTTTL:            24 * time.Hour,
		RTCAppID:          "telecare-rtc",
		RTCTokenTTL:       30 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
		IdleTimeout:       5 * time.Minute,
		MediaMode:         "none",
	}
}
