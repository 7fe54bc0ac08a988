package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Expected listen ':8080', got %q", cfg.Server.Listen)
	}
	if cfg.Server.MaxUploadBytes != 1<<30 {
		t.Errorf("Expected max upload 1GB, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected storage type 'memory', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.S3 == nil || cfg.Storage.Memory == nil {
		t.Error("Expected storage option maps to be initialized")
	}
	if cfg.Access.Type != "allowall" {
		t.Errorf("Expected access type 'allowall', got %q", cfg.Access.Type)
	}
	if cfg.Audit.Type != "console" {
		t.Errorf("Expected audit type 'console', got %q", cfg.Audit.Type)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "WARN"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected normalized level 'warn', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Listen = ":3000"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Storage.Type = "s3"
	cfg.Audit.Type = "badger"
	ApplyDefaults(cfg)

	if cfg.Server.Listen != ":3000" {
		t.Errorf("Expected explicit listen preserved, got %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected explicit shutdown timeout preserved, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.Type != "s3" {
		t.Errorf("Expected explicit storage type preserved, got %q", cfg.Storage.Type)
	}
	if cfg.Audit.Type != "badger" {
		t.Errorf("Expected explicit audit type preserved, got %q", cfg.Audit.Type)
	}
}

func TestApplyDefaults_S3Region(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.S3["region"] != "us-east-1" {
		t.Errorf("Expected default region 'us-east-1', got %v", cfg.Storage.S3["region"])
	}

	cfg2 := &Config{Storage: StorageConfig{S3: map[string]any{"region": "eu-central-1"}}}
	ApplyDefaults(cfg2)

	if cfg2.Storage.S3["region"] != "eu-central-1" {
		t.Errorf("Expected explicit region preserved, got %v", cfg2.Storage.S3["region"])
	}
}
