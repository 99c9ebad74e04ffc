// Package config loads the engine configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/gesture"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
)

// Environment variables that override the file.
const (
	EnvLogLevel  = "MDX_LOG_LEVEL"
	EnvStore     = "MDX_STORE"
	EnvRedisAddr = "MDX_REDIS_ADDR"
	EnvStorePath = "MDX_STORE_PATH"
	EnvUser      = "MDX_USER"
	EnvStoreKey  = "MDX_STORE_KEY"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	User     string         `mapstructure:"user" yaml:"user"`
	Language string         `mapstructure:"language" yaml:"language"`
	Wake     WakeConfig     `mapstructure:"wake" yaml:"wake"`
	Gesture  GestureConfig  `mapstructure:"gesture" yaml:"gesture"`
	Executor ExecutorConfig `mapstructure:"executor" yaml:"executor"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// WakeConfig controls wake phrase handling. Phrases are added to the
// built-in ones and may be given as a list or a comma separated string.
type WakeConfig struct {
	Required bool     `mapstructure:"required" yaml:"required"`
	Phrases  []string `mapstructure:"phrases" yaml:"phrases"`
}

type GestureConfig struct {
	Disabled bool           `mapstructure:"disabled" yaml:"disabled"`
	Nod      gesture.Config `mapstructure:"nod" yaml:"nod"`
	Shake    gesture.Config `mapstructure:"shake" yaml:"shake"`
}

// ExecutorConfig tunes step pacing. BindingsFile names a YAML or JSON file
// binding intent kinds to external commands.
type ExecutorConfig struct {
	StepDelay       time.Duration `mapstructure:"step_delay" yaml:"step_delay"`
	PostLoadDelay   time.Duration `mapstructure:"post_load_delay" yaml:"post_load_delay"`
	ContinueOnError bool          `mapstructure:"continue_on_error" yaml:"continue_on_error"`
	BindingsFile    string        `mapstructure:"bindings_file" yaml:"bindings_file,omitempty"`
}

// StoreConfig selects the macro store. EncryptionKey (base64, 32 bytes)
// seals stored actions; Redact lists regexps of intent parameter names
// masked before storage.
type StoreConfig struct {
	Backend       string      `mapstructure:"backend" yaml:"backend"`
	Path          string      `mapstructure:"path" yaml:"path"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
	EncryptionKey string      `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	Redact        []string    `mapstructure:"redact" yaml:"redact,omitempty"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	MetricsAddr   string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	MaxTranscript int    `mapstructure:"max_transcript" yaml:"max_transcript"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:      LogConfig{Level: "info"},
		User:     "default",
		Language: "en",
		Gesture: GestureConfig{
			Nod:   gesture.DefaultNodConfig(),
			Shake: gesture.DefaultShakeConfig(),
		},
		Executor: ExecutorConfig{PostLoadDelay: 500 * time.Millisecond},
		Store: StoreConfig{
			Backend: StoreMemory,
			Path:    ".mdxvision/macros",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "mdx:"},
		},
		Server: ServerConfig{Addr: ":8080", MaxTranscript: normalize.DefaultMaxTranscript},
	}
}

// Load reads path on the OS filesystem. An empty path yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (Config, error) {
	return LoadFs(afero.NewOsFs(), path, os.LookupEnv)
}

// LoadFs reads path from fs and applies overrides from lookup.
func LoadFs(fs afero.Fs, path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg, lookup)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges YAML data into cfg. Keys missing from data keep their value.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToSliceHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// stringToSliceHook accepts "a, b" wherever a string list is expected.
func stringToSliceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	return splitList(data.(string)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvStore); ok && v != "" {
		cfg.Store.Backend = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v, ok := lookup(EnvStorePath); ok && v != "" {
		cfg.Store.Path = v
	}
	if v, ok := lookup(EnvUser); ok && v != "" {
		cfg.User = v
	}
	if v, ok := lookup(EnvStoreKey); ok && v != "" {
		cfg.Store.EncryptionKey = v
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.Store.Backend == StoreFile && c.Store.Path == "" {
		return fmt.Errorf("%w: file store needs a path", ErrInvalidConfig)
	}
	if c.Store.Backend == StoreRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("%w: redis store needs an address", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	}
	if c.Gesture.Nod.Threshold <= 0 || c.Gesture.Shake.Threshold <= 0 {
		return fmt.Errorf("%w: gesture thresholds must be positive", ErrInvalidConfig)
	}
	if c.Executor.StepDelay < 0 || c.Executor.PostLoadDelay < 0 {
		return fmt.Errorf("%w: executor delays cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// String renders the config as YAML with secrets masked.
func (c Config) String() string {
	if c.Store.Redis.Password != "" {
		c.Store.Redis.Password = "****"
	}
	if c.Store.EncryptionKey != "" {
		c.Store.EncryptionKey = "****"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return "config: " + strconv.Quote(err.Error())
	}
	return string(out)
}
