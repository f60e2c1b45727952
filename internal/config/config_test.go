package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "slog", cfg.Log.Backend)
	assert.Equal(t, "file", cfg.Draft.Store)
	assert.Equal(t, "json", cfg.Draft.Codec)
	assert.Equal(t, wizard.DefaultToastDuration, cfg.Toast.Duration)
	assert.False(t, cfg.Definition.Watch)
	assert.Equal(t, 5.0, cfg.Limits.RequestsPerSecond)
	assert.Equal(t, 20, cfg.Limits.Burst)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formwizard.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":8080"
  allowed_origins: ["https://forms.example.com"]
log:
  level: debug
  backend: zap
draft:
  store: memory
  codec: msgpack
toast:
  duration: 3s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"https://forms.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "memory", cfg.Draft.Store)
	assert.Equal(t, 3*time.Second, cfg.Toast.Duration)

	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formwizard.yml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("FORMWIZARD_LOG_LEVEL", "error")
	t.Setenv("FORMWIZARD_DEFINITION_WATCH", "true")
	t.Setenv("FORMWIZARD_UPLOADS_MAX_FILE_SIZE", "1024")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Definition.Watch)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxFileSize)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestWriteThenLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Server.Address = ":9999"
	cfg.Draft.Key = "custom"

	path := filepath.Join(t.TempDir(), "out.yml")
	require.NoError(t, Write(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", got.Server.Address)
	assert.Equal(t, "custom", got.Draft.Key)
}

func TestRuntime(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	rc := cfg.Runtime()
	require.NoError(t, rc.Validate())
	assert.Equal(t, ":3000", rc.Address)
	assert.False(t, rc.Security.InsecureDevMode)

	cfg.Server.DevMode = true
	rc = cfg.Runtime()
	assert.True(t, rc.Security.InsecureDevMode)

	tc, ws := cfg.TransportSettings()
	assert.Equal(t, rc.MaxMessageSize, tc.MaxMessageSize)
	assert.True(t, ws.InsecureDevMode)
}

func TestOpenStore(t *testing.T) {
	cfg := &Config{Draft: DraftConfig{Store: "memory"}}
	store, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &state.MemoryStore{}, store)
	store.Close()

	cfg.Draft = DraftConfig{Store: "file", Path: t.TempDir()}
	store, err = cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &state.FileStore{}, store)
	store.Close()

	cfg.Draft.Store = "redis"
	_, err = cfg.OpenStore()
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestDraftStore_KeyFallback(t *testing.T) {
	store := state.NewMemoryStore()
	defer store.Close()
	def := &wizard.Definition{DraftKey: "fromDefinition"}

	cfg := &Config{Draft: DraftConfig{Codec: "json"}}
	drafts, err := cfg.DraftStore(store, def)
	require.NoError(t, err)
	assert.Equal(t, "fromDefinition", drafts.Key())

	cfg.Draft.Key = "override"
	drafts, err = cfg.DraftStore(store, def)
	require.NoError(t, err)
	assert.Equal(t, "override", drafts.Key())

	cfg.Draft.Codec = "gob"
	_, err = cfg.DraftStore(store, def)
	assert.Error(t, err)
}

func TestLoadDefinition(t *testing.T) {
	cfg := &Config{}
	def, err := cfg.LoadDefinition()
	require.NoError(t, err)
	assert.Equal(t, wizard.DefaultDefinition().Title, def.Title)

	cfg.Definition.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.LoadDefinition()
	assert.Error(t, err)
}
