package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"labelpress/internal/constants"
)

// AuditConfig holds user-configurable audit log settings.
type AuditConfig struct {
	MaxLogSizeBytes int64 `yaml:"max_log_size_bytes"`
	PurgePercentage int   `yaml:"purge_percentage"`
}

// Config holds all application configuration.
type Config struct {
	// UploadRoot is the shared directory all destination subdirectories
	// live under. The UPLOAD_PATH environment variable (or a .env file)
	// overrides the YAML value, matching the deployment convention.
	UploadRoot string `yaml:"upload_root"`

	Port           int         `yaml:"port"`
	LogLevel       string      `yaml:"log_level"`
	AllowedOrigins []string    `yaml:"allowed_origins"`
	Audit          AuditConfig `yaml:"audit"`
}

// ApplyDefaults fills zero-valued fields with constant defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = constants.DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = constants.DefaultLogLevel
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Audit.MaxLogSizeBytes == 0 {
		cfg.Audit.MaxLogSizeBytes = constants.AuditDefaultMaxLogSizeBytes
	}
	if cfg.Audit.PurgePercentage == 0 {
		cfg.Audit.PurgePercentage = constants.AuditDefaultPurgePercentage
	}
}

// validate checks that all configurable values are within acceptable ranges.
func (cfg *Config) validate() error {
	var errs []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	if cfg.Audit.MaxLogSizeBytes < 1048576 {
		errs = append(errs, "audit.max_log_size_bytes must be >= 1048576 (1MB)")
	}
	if cfg.Audit.PurgePercentage < 1 || cfg.Audit.PurgePercentage > 100 {
		errs = append(errs, "audit.purge_percentage must be between 1 and 100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.ConfigDir)
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), constants.ConfigFile)
}

func EnsureConfigDir() error {
	return os.MkdirAll(GetConfigDir(), constants.DirPermissions)
}

// Load reads the YAML config (creating it with defaults on first run),
// then applies the environment override for the upload root. A .env file
// in the working directory is honoured if present.
func Load() (*Config, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	configPath := GetConfigPath()
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		cfg.ApplyDefaults()
		if err := Save(cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		cfg.ApplyDefaults()
	}

	// .env is optional; absence is the normal case outside development.
	_ = godotenv.Load()
	if root := os.Getenv(constants.EnvUploadRoot); root != "" {
		cfg.UploadRoot = root
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back to the YAML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(GetConfigPath(), data, constants.FilePermissions)
}
