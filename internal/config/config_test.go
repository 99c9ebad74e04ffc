package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 1.8, cfg.Gesture.Nod.Threshold)
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/mdx.yaml", []byte(`
log:
  level: debug
language: es
wake:
  required: true
  phrases: "hola mdx, oye mdx"
gesture:
  nod:
    threshold: 2.2
    double_window: 450ms
executor:
  step_delay: 250ms
  continue_on_error: true
store:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
server:
  addr: ":9090"
`), 0o644))

	cfg, err := LoadFs(fs, "/etc/mdx.yaml", nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "es", cfg.Language)
	assert.True(t, cfg.Wake.Required)
	assert.Equal(t, []string{"hola mdx", "oye mdx"}, cfg.Wake.Phrases)
	assert.Equal(t, 2.2, cfg.Gesture.Nod.Threshold)
	assert.Equal(t, 450*time.Millisecond, cfg.Gesture.Nod.DoubleWindow)
	assert.Equal(t, 800*time.Millisecond, cfg.Gesture.Nod.Timeout, "unset keys keep their default")
	assert.Equal(t, 250*time.Millisecond, cfg.Executor.StepDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Executor.PostLoadDelay)
	assert.True(t, cfg.Executor.ContinueOnError)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "mdx:", cfg.Store.Redis.Prefix)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_PhraseList(t *testing.T) {
	var cfg Config
	require.NoError(t, Decode([]byte("wake:\n  phrases: [hola mdx]\n"), &cfg))
	assert.Equal(t, []string{"hola mdx"}, cfg.Wake.Phrases)
}

func TestLoad_StoreRedaction(t *testing.T) {
	var cfg Config
	require.NoError(t, Decode([]byte("store:\n  redact: identifier, ^query$\n"), &cfg))
	assert.Equal(t, []string{"identifier", "^query$"}, cfg.Store.Redact)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), "", env(map[string]string{
		EnvLogLevel:  "warn",
		EnvStore:     "file",
		EnvStorePath: "/var/lib/mdx",
		EnvUser:      "dr-cuddy",
		EnvRedisAddr: "",
		EnvStoreKey:  "a2V5",
	}))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/mdx", cfg.Store.Path)
	assert.Equal(t, "dr-cuddy", cfg.User)
	assert.Equal(t, "a2V5", cfg.Store.EncryptionKey)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr, "empty values are ignored")
}

func TestLoad_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write := func(name, body string) string {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o644))
		return name
	}

	tests := []struct {
		name string
		path string
		env  map[string]string
		is   error
	}{
		{"Missing File", "/nope.yaml", nil, nil},
		{"Bad YAML", write("/bad.yaml", "log: [unclosed"), nil, nil},
		{"Unknown Key", write("/unknown.yaml", "colour: blue\n"), nil, nil},
		{"Bad Duration", write("/dur.yaml", "executor:\n  step_delay: soon\n"), nil, nil},
		{"Unknown Backend", "", map[string]string{EnvStore: "s3"}, ErrInvalidConfig},
		{"Zero Threshold", write("/thr.yaml", "gesture:\n  shake:\n    threshold: 0\n"), nil, ErrInvalidConfig},
		{"Negative Delay", write("/neg.yaml", "executor:\n  step_delay: -1s\n"), nil, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFs(fs, tt.path, env(tt.env))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestConfig_StringMasksPassword(t *testing.T) {
	cfg := Default()
	cfg.Store.Redis.Password = "hunter2"
	cfg.Store.EncryptionKey = "c2VjcmV0LWtleQ=="

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "c2VjcmV0LWtleQ==")
	assert.Contains(t, out, "****")
	assert.Equal(t, "hunter2", cfg.Store.Redis.Password, "String does not mutate the receiver")
}
