package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourcePattern is an include glob plus the globs excluded from it.
type SourcePattern struct {
	Pattern  string   `toml:"pattern" yaml:"pattern" validate:"required,notblank"`
	Excludes []string `toml:"excludes" yaml:"excludes"`
}

// Config holds the step configuration.
type Config struct {
	SourcePatterns []SourcePattern `toml:"source_patterns" yaml:"source_patterns" validate:"dive"`
	ReportPath     string          `toml:"report_path" yaml:"report_path" env:"PLUGIN_REPORT_PATH"`

	// SourcePattern and ExcludePatterns configure the earlier, single pattern
	// variant of the step, which never writes a report.
	SourcePattern   string   `toml:"source_pattern" yaml:"source_pattern" env:"PLUGIN_SOURCE_PATTERN"`
	ExcludePatterns []string `toml:"exclude_patterns" yaml:"exclude_patterns" env:"PLUGIN_EXCLUDE_PATTERNS" envSeparator:","`

	ExcludedRules []string `toml:"excluded_rules" yaml:"excluded_rules" env:"PLUGIN_EXCLUDED_RULES" envSeparator:","`

	Workspace string `toml:"workspace" yaml:"workspace" env:"PLUGIN_WORKSPACE"`

	Logging struct {
		Level  string `toml:"level" yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
		Format string `toml:"format" yaml:"format" env:"LOG_FORMAT" validate:"oneof=json text"`
	} `toml:"logging" yaml:"logging"`
}

// LoadEnvFile loads variables from a dotenv file into the environment.
// Variables already set are kept.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the optional config file at path, overlays the environment and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.setDefaults()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults fills what neither the file nor the environment set.
func (cfg *Config) setDefaults() {
	if cfg.Workspace == "" {
		cfg.Workspace = os.Getenv("CI_WORKSPACE")
	}
	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// decodeFile decodes a TOML or YAML config file, picked by extension.
func decodeFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(content)).Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	return nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		return fmt.Errorf("failed to register notblank validation: %w", err)
	}

	if err := v.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.IsLegacy() && len(cfg.SourcePatterns) > 0 {
		return fmt.Errorf("source_pattern/exclude_patterns cannot be combined with source_patterns")
	}

	if cfg.IsLegacy() && cfg.ReportPath != "" {
		return fmt.Errorf("report_path requires source_patterns")
	}

	return nil
}

// IsLegacy reports whether the single pattern variant is configured.
func (cfg *Config) IsLegacy() bool {
	return cfg.SourcePattern != "" || len(cfg.ExcludePatterns) > 0
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required", "notblank":
				messages = append(messages, fmt.Sprintf("%s is required", e.Namespace()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Namespace(), e.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Namespace(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
