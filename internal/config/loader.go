package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envOverrides holds the settings that can be supplied through AUREUS_*
// environment variables. They take precedence over the configuration file,
// so secrets never need to live on disk.
type envOverrides struct {
	RPCURL       string `envconfig:"RPC_URL"`
	DBPath       string `envconfig:"DB_PATH"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
}

// LoadFromFile loads configuration from a YAML, JSON or TOML file, selected
// by extension, applies the AUREUS_* environment overlay, fills in defaults
// and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .yaml, .yml, .json or .toml)", ext)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Apply default values for optional fields
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("aureus", &env); err != nil {
		return err
	}

	if env.RPCURL != "" {
		cfg.Chain.RPCURL = env.RPCURL
	}
	if env.DBPath != "" {
		cfg.DB.Path = env.DBPath
	}
	if env.SMTPPassword != "" || env.SMTPUsername != "" {
		if cfg.Notify.Email == nil {
			cfg.Notify.Email = &EmailConfig{}
		}
		if env.SMTPPassword != "" {
			cfg.Notify.Email.Password = env.SMTPPassword
		}
		if env.SMTPUsername != "" {
			cfg.Notify.Email.Username = env.SMTPUsername
		}
	}

	return nil
}
