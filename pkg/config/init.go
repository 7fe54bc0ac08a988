package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a commented default configuration file to the default
// location and returns its path. Refuses to overwrite an existing file
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()

	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}

	return path, nil
}

// InitConfigToPath writes a commented default configuration file to the
// given path, creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	rendered, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}

	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders the configuration as YAML with a
// commented header per section. The body of each section is produced by
// the YAML encoder so values always round-trip through Load.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var b strings.Builder

	b.WriteString("# bucketfm Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Environment variables with the BUCKETFM_ prefix override this file,\n")
	b.WriteString("# e.g. BUCKETFM_LOGGING_LEVEL=debug.\n\n")

	sections := []struct {
		comment string
		key     string
		value   any
	}{
		{"Log output. Levels: debug, info, warn, error. Formats: text, json.", "logging", cfg.Logging},
		{"HTTP server settings.", "server", cfg.Server},
		{"Storage backend. Types: s3, memory.", "storage", cfg.Storage},
		{"Permission provider. Types: allowall, static.", "access", cfg.Access},
		{"Audit sink. Types: console, badger.", "audit", cfg.Audit},
		{"Bearer-token authentication. Disabled means anonymous access.", "auth", cfg.Auth},
	}

	for _, section := range sections {
		b.WriteString("# " + section.comment + "\n")

		rendered, err := yaml.Marshal(map[string]any{section.key: section.value})
		if err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", section.key, err)
		}

		b.Write(rendered)
		b.WriteString("\n")
	}

	return b.String(), nil
}
