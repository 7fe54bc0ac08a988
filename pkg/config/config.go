package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bucketfm/bucketfm/internal/logging"
)

// Config represents the complete bucketfm configuration.
//
// This structure captures all configurable aspects of the server including:
//   - Logging configuration
//   - HTTP server settings
//   - Storage backend selection and configuration (backend-specific)
//   - Permission provider selection and configuration
//   - Audit sink selection and configuration
//   - Authentication settings
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (BUCKETFM_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each backend implementation defines its own configuration shape. The Config
// struct contains type-specific sections (e.g. storage.s3, storage.memory)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging logging.Config `mapstructure:"logging" yaml:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Storage specifies the storage backend type and type-specific configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Access specifies the permission provider type and its configuration
	Access AccessConfig `mapstructure:"access" yaml:"access"`

	// Audit specifies the audit sink type and its configuration
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// Auth contains authentication settings
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to (e.g. ":8080")
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required"`

	// ReadTimeout bounds how long reading a request may take
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gt=0"`

	// WriteTimeout bounds how long writing a response may take
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// MaxUploadBytes caps the size of a single upload request body
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	// CORSOrigins lists allowed cross-origin request origins.
	// Empty list allows all origins.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// RateLimitRPS is the sustained request rate accepted per server.
	// Zero disables rate limiting.
	RateLimitRPS uint `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`

	// RateLimitBurst is the burst capacity above the sustained rate
	RateLimitBurst uint `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// StorageConfig specifies storage backend configuration.
//
// The Type field determines which backend implementation is used.
// Only the corresponding type-specific configuration section is used.
type StorageConfig struct {
	// Type specifies which storage backend to use
	// Valid values: s3, memory
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=s3 memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`
}

// AccessConfig specifies permission provider configuration.
type AccessConfig struct {
	// Type specifies which permission provider to use
	// Valid values: allowall, static
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=allowall static"`

	// Static contains rules for the static provider
	// Only used when Type = "static"
	Static map[string]any `mapstructure:"static" yaml:"static"`
}

// AuditConfig specifies audit sink configuration.
type AuditConfig struct {
	// Type specifies which audit sink to use
	// Valid values: console, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=console badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// Enabled turns bearer-token authentication on.
	// When disabled every request runs as the anonymous user.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Secret is the HMAC secret used to verify JWT bearer tokens
	Secret string `mapstructure:"secret" yaml:"secret"`

	// Issuer, when set, is required to match the token's iss claim
	Issuer string `mapstructure:"issuer" yaml:"issuer"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (BUCKETFM_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the BUCKETFM_ prefix and underscores.
	// Example: BUCKETFM_LOGGING_LEVEL=debug
	v.SetEnvPrefix("BUCKETFM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable, defaults apply.
			return nil
		}

		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bucketfm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "bucketfm")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the init command).
func GetConfigDir() string {
	return getConfigDir()
}
