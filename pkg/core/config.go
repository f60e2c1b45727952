package core

import (
	"errors"
	"time"
)

// TimeoutConfig configures timeouts for various operations.
type TimeoutConfig struct {
	// ComponentMount is the timeout for component Mount() calls.
	ComponentMount time.Duration

	// ComponentEvent is the timeout for HandleEvent() and HandleInfo() calls.
	ComponentEvent time.Duration

	// WebSocketRead is the read timeout for WebSocket connections.
	WebSocketRead time.Duration

	// WebSocketWrite is the write timeout for WebSocket connections.
	WebSocketWrite time.Duration

	// SessionCleanup is the interval for cleaning up inactive sessions.
	SessionCleanup time.Duration

	// GracefulShutdown is the timeout for graceful shutdown.
	GracefulShutdown time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount:   5 * time.Second,
		ComponentEvent:   3 * time.Second,
		WebSocketRead:    60 * time.Second,
		WebSocketWrite:   10 * time.Second,
		SessionCleanup:   5 * time.Minute,
		GracefulShutdown: 30 * time.Second,
	}
}

// RelaxedTimeoutConfig returns more relaxed timeouts for development.
func RelaxedTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount:   30 * time.Second,
		ComponentEvent:   30 * time.Second,
		WebSocketRead:    300 * time.Second,
		WebSocketWrite:   30 * time.Second,
		SessionCleanup:   30 * time.Minute,
		GracefulShutdown: 60 * time.Second,
	}
}

// SecurityConfig configures security settings.
type SecurityConfig struct {
	// AllowedOrigins for WebSocket connections besides same-origin.
	AllowedOrigins []string

	// InsecureDevMode disables origin checks (ONLY for development!).
	InsecureDevMode bool

	// SecureHeaders enables security response headers.
	SecureHeaders bool
}

// DefaultSecurityConfig returns secure default configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		SecureHeaders: true,
	}
}

// DevelopmentSecurityConfig returns relaxed config for development.
func DevelopmentSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins:  []string{"*"},
		InsecureDevMode: true,
	}
}

// Config combines the runtime settings of a live server.
type Config struct {
	Timeouts TimeoutConfig
	Security SecurityConfig

	Address string
	Debug   bool

	MaxMessageSize int64
	MaxConnections int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeouts:       DefaultTimeoutConfig(),
		Security:       DefaultSecurityConfig(),
		Address:        ":3000",
		MaxMessageSize: 512 * 1024,
		MaxConnections: 10000,
	}
}

// DevelopmentConfig returns configuration optimized for development.
func DevelopmentConfig() Config {
	return Config{
		Timeouts:       RelaxedTimeoutConfig(),
		Security:       DevelopmentSecurityConfig(),
		Address:        ":3000",
		Debug:          true,
		MaxMessageSize: 10 * 1024 * 1024,
		MaxConnections: 1000,
	}
}

// Configuration errors.
var (
	ErrInvalidMaxMessageSize = errors.New("MaxMessageSize must be positive")
	ErrInvalidAddress        = errors.New("address is required")
	ErrInvalidTimeout        = errors.New("timeouts must be positive")
)

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Address == "" {
		return ErrInvalidAddress
	}
	if c.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	t := c.Timeouts
	for _, d := range []time.Duration{t.ComponentMount, t.ComponentEvent, t.WebSocketRead, t.WebSocketWrite} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	return nil
}
