package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// ProcessConfig binds one intent kind to an external command.
type ProcessConfig struct {
	Intent      domain.Kind       `yaml:"intent" json:"intent"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of bindings.yaml
type ConfigFile struct {
	Bindings []ProcessConfig `yaml:"bindings" json:"bindings"`
}

// LoadBindings reads a configuration file (YAML or JSON) and returns the
// commands keyed by intent kind. A missing file yields no bindings.
func LoadBindings(path string) (map[domain.Kind]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[domain.Kind]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read bindings config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	out := make(map[domain.Kind]ProcessConfig)
	for i, b := range cfg.Bindings {
		if !knownKind(b.Intent) {
			return nil, fmt.Errorf("binding %d: %w: %q", i, domain.ErrUnknownIntentKind, b.Intent)
		}
		if b.Intent == domain.KindCreateMacro {
			return nil, fmt.Errorf("binding %d: %s is handled by the macro registry", i, b.Intent)
		}
		if b.Command == "" {
			return nil, fmt.Errorf("binding %d (%s): command is required", i, b.Intent)
		}
		out[b.Intent] = b
	}

	return out, nil
}

func knownKind(k domain.Kind) bool {
	for _, known := range domain.Kinds {
		if k == known {
			return true
		}
	}
	return false
}
