package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	BackendURL      string `json:"backend_url" yaml:"backend_url" toml:"backend_url"`
	APIToken        string `json:"api_token" yaml:"api_token" toml:"api_token"`
	UserID          string `json:"user_id" yaml:"user_id" toml:"user_id"`
	DefaultModel    string `json:"default_model" yaml:"default_model" toml:"default_model"`
	Ratio           string `json:"ratio" yaml:"ratio" toml:"ratio"`
	Quality         string `json:"quality" yaml:"quality" toml:"quality"`
	PollIntervalMS  int    `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	ToastDurationMS int    `json:"toast_duration_ms" yaml:"toast_duration_ms" toml:"toast_duration_ms"`
	PreviewsDir     string `json:"previews_dir" yaml:"previews_dir" toml:"previews_dir"`
	CORSOrigins     string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
