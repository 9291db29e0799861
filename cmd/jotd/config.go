package main

import "time"

// Config holds jotd configuration loaded from environment variables.
// RedisURL is optional: when empty, device requests are kept in process
// memory, which is fine for a single node. SigningKey is process-wide;
// rotating it invalidates every outstanding session credential.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL"`
	SigningKey  string `envconfig:"SIGNING_KEY" required:"true"`

	CodeLifetime time.Duration `envconfig:"CODE_LIFETIME" default:"10m"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`

	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}
