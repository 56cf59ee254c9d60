package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/webcompile/internal/errors"
)

// Load reads, parses, and validates a configuration file. The file extension
// selects the parser; every format must carry the "web-compile" top-level key.
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} expansion below can see it.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.ConfigInvalid(configPath, fmt.Errorf("file is empty"))
	}

	expanded := os.ExpandEnv(string(data))

	raw, err := parseByExtension(configPath, []byte(expanded))
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	section, ok := raw[TopLevelKey]
	if !ok {
		return nil, errors.ConfigInvalid(configPath,
			fmt.Errorf("must contain top-level key %q", TopLevelKey))
	}

	cfg, err := decodeSection(section)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseByExtension(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("file extension not one of: json, toml, yml, yaml")
	}
	return raw, nil
}

// decodeSection round-trips the format-agnostic section through YAML so that a
// single set of field tags covers all three input formats.
func decodeSection(section any) (*Config, error) {
	if section == nil {
		return &Config{}, nil
	}
	buf, err := yaml.Marshal(section)
	if err != nil {
		return nil, fmt.Errorf("normalize config section: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("decode config section: %w", err)
	}
	return cfg, nil
}
