// Package config loads formwizard configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/transport"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// EnvPrefix prefixes every environment override, e.g. FORMWIZARD_LOG_LEVEL.
const EnvPrefix = "FORMWIZARD"

// ProjectPath is the config file looked up in the working directory.
const ProjectPath = "formwizard.yml"

var ErrUnknownStore = errors.New("unknown draft store")

// Config holds all configuration values for formwizard.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Draft      DraftConfig      `mapstructure:"draft" yaml:"draft"`
	Definition DefinitionConfig `mapstructure:"definition" yaml:"definition"`
	Uploads    UploadsConfig    `mapstructure:"uploads" yaml:"uploads"`
	Transport  TransportConfig  `mapstructure:"transport" yaml:"transport"`
	Toast      ToastConfig      `mapstructure:"toast" yaml:"toast"`
	Limits     LimitsConfig     `mapstructure:"limits" yaml:"limits"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address" yaml:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// DevMode relaxes origin checks and timeouts.
	DevMode bool `mapstructure:"dev_mode" yaml:"dev_mode"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Format  string `mapstructure:"format" yaml:"format"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Source adds the caller's file and line to every entry.
	Source bool `mapstructure:"source" yaml:"source"`
}

// DraftConfig selects where drafts live. Store is "memory" or "file".
type DraftConfig struct {
	Store string `mapstructure:"store" yaml:"store"`
	Path  string `mapstructure:"path" yaml:"path"`

	// Key overrides the definition's draft key.
	Key   string `mapstructure:"key" yaml:"key"`
	Codec string `mapstructure:"codec" yaml:"codec"`
}

type DefinitionConfig struct {
	// Path to a YAML definition. Empty means the built-in carbon report.
	Path  string `mapstructure:"path" yaml:"path"`
	Watch bool   `mapstructure:"watch" yaml:"watch"`
}

type UploadsConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	MaxFileSize int64  `mapstructure:"max_file_size" yaml:"max_file_size"`
}

type TransportConfig struct {
	// MaxMessageSize of 0 keeps the runtime default.
	MaxMessageSize int64 `mapstructure:"max_message_size" yaml:"max_message_size"`
}

// LimitsConfig throttles page loads, live joins and uploads per client IP.
// A zero rate disables throttling.
type LimitsConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	TrustProxy        bool    `mapstructure:"trust_proxy" yaml:"trust_proxy"`
}

// MetricsConfig exposes the Prometheus text endpoint at Path.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type ToastConfig struct {
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`
}

var defaults = map[string]any{
	"server.address":             ":3000",
	"server.allowed_origins":     []string{},
	"server.dev_mode":            false,
	"log.level":                  "info",
	"log.format":                 "text",
	"log.backend":                "slog",
	"log.source":                 false,
	"draft.store":                "file",
	"draft.path":                 ".formwizard/drafts",
	"draft.key":                  "",
	"draft.codec":                "json",
	"definition.path":            "",
	"definition.watch":           false,
	"uploads.dir":                uploads.DefaultConfig().Dir,
	"uploads.max_file_size":      uploads.DefaultConfig().MaxFileSize,
	"transport.max_message_size": int64(0),
	"toast.duration":             wizard.DefaultToastDuration,
	"limits.requests_per_second": 5.0,
	"limits.burst":               20,
	"limits.trust_proxy":         false,
	"metrics.enabled":            true,
	"metrics.path":               "/metrics",
}

// Load reads configuration with precedence env > file > defaults. An
// explicit path must exist; otherwise ProjectPath is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	case fileExists(ProjectPath):
		v.SetConfigFile(ProjectPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", ProjectPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Write stores cfg as YAML at path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Runtime returns the live runtime settings.
func (c *Config) Runtime() core.Config {
	rc := core.DefaultConfig()
	if c.Server.DevMode {
		rc = core.DevelopmentConfig()
	}
	rc.Address = c.Server.Address
	rc.Security.AllowedOrigins = c.Server.AllowedOrigins
	if c.Transport.MaxMessageSize > 0 {
		rc.MaxMessageSize = c.Transport.MaxMessageSize
	}
	return rc
}

// TransportSettings derives websocket settings from the runtime config.
func (c *Config) TransportSettings() (*transport.TransportConfig, *transport.WebSocketConfig) {
	rc := c.Runtime()
	tc := transport.DefaultTransportConfig()
	tc.ReadTimeout = rc.Timeouts.WebSocketRead
	tc.WriteTimeout = rc.Timeouts.WebSocketWrite
	tc.MaxMessageSize = rc.MaxMessageSize
	return tc, &transport.WebSocketConfig{
		AllowedOrigins:  rc.Security.AllowedOrigins,
		InsecureDevMode: rc.Security.InsecureDevMode,
	}
}

// UploadSettings returns the upload handler configuration.
func (c *Config) UploadSettings() *uploads.Config {
	uc := uploads.DefaultConfig()
	if c.Uploads.Dir != "" {
		uc.Dir = c.Uploads.Dir
	}
	if c.Uploads.MaxFileSize > 0 {
		uc.MaxFileSize = c.Uploads.MaxFileSize
	}
	return uc
}

// NewLogger builds the configured logger.
func (c *Config) NewLogger() logging.Logger {
	opts := []logging.LoggerOption{logging.WithLevel(logging.ParseLevel(c.Log.Level))}
	if strings.EqualFold(c.Log.Format, "json") {
		opts = append(opts, logging.WithJSON())
	}
	if c.Log.Source {
		opts = append(opts, logging.WithSource())
	}
	return logging.New(c.Log.Backend, opts...)
}

// LoadDefinition loads the configured wizard definition.
func (c *Config) LoadDefinition() (*wizard.Definition, error) {
	if c.Definition.Path == "" {
		return wizard.DefaultDefinition(), nil
	}
	return wizard.LoadDefinition(c.Definition.Path)
}

// OpenStore opens the configured draft backend.
func (c *Config) OpenStore() (state.Store, error) {
	switch c.Draft.Store {
	case "memory":
		return state.NewMemoryStore(), nil
	case "", "file":
		return state.NewFileStore(c.Draft.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, c.Draft.Store)
	}
}

// DraftStore wraps store with the configured codec. The key falls back to
// the definition's draft key.
func (c *Config) DraftStore(store state.Store, def *wizard.Definition) (*wizard.DraftStore, error) {
	serializer, err := state.SerializerByName(c.Draft.Codec)
	if err != nil {
		return nil, err
	}
	key := c.Draft.Key
	if key == "" && def != nil {
		key = def.DraftKey
	}
	return wizard.NewDraftStore(store, serializer, key), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
