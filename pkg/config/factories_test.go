package config

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/access"
	"github.com/bucketfm/bucketfm/pkg/vpath"
)

func TestCreateStore_Memory(t *testing.T) {
	cfg := &StorageConfig{Type: "memory", Memory: map[string]any{}}

	store, err := CreateStore(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected a store, got nil")
	}
}

func TestCreateStore_UnknownType(t *testing.T) {
	cfg := &StorageConfig{Type: "postgres"}

	if _, err := CreateStore(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Expected error for unknown store type, got nil")
	}
}

func TestCreateStore_S3MissingBucket(t *testing.T) {
	cfg := &StorageConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}

	if _, err := CreateStore(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Expected error for s3 store without bucket, got nil")
	}
}

func TestCreateStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &StorageConfig{Type: "memory"}

	if _, err := CreateStore(ctx, cfg, zap.NewNop()); err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
}

func TestCreateAccessProvider_AllowAll(t *testing.T) {
	cfg := &AccessConfig{Type: "allowall"}

	provider, err := CreateAccessProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create allowall provider: %v", err)
	}

	flags, err := provider.Permissions(context.Background(), access.User{}, vpath.Root)
	if err != nil {
		t.Fatalf("Permissions failed: %v", err)
	}
	if !flags.Has(access.Read | access.Write | access.Delete | access.Upload) {
		t.Errorf("Expected full grant from allowall, got %v", flags)
	}
}

func TestCreateAccessProvider_Static(t *testing.T) {
	cfg := &AccessConfig{
		Type: "static",
		Static: map[string]any{
			"rules": []map[string]any{
				{"path_prefix": "/", "grant": "read"},
				{"path_prefix": "/inbox", "role": "editor", "grant": "read,write,upload"},
			},
		},
	}

	provider, err := CreateAccessProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create static provider: %v", err)
	}

	flags, err := provider.Permissions(context.Background(), access.User{}, vpath.Path("/docs"))
	if err != nil {
		t.Fatalf("Permissions failed: %v", err)
	}
	if flags != access.Read {
		t.Errorf("Expected read-only grant, got %v", flags)
	}

	editor := access.User{ID: "e", Roles: []string{"editor"}}
	flags, err = provider.Permissions(context.Background(), editor, vpath.Path("/inbox/report.pdf"))
	if err != nil {
		t.Fatalf("Permissions failed: %v", err)
	}
	if !flags.Has(access.Write | access.Upload) {
		t.Errorf("Expected editor grant on /inbox, got %v", flags)
	}
}

func TestCreateAccessProvider_StaticRequiresRules(t *testing.T) {
	cfg := &AccessConfig{Type: "static", Static: map[string]any{}}

	if _, err := CreateAccessProvider(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for static provider without rules, got nil")
	}
}

func TestCreateAccessProvider_StaticBadGrant(t *testing.T) {
	cfg := &AccessConfig{
		Type: "static",
		Static: map[string]any{
			"rules": []map[string]any{
				{"path_prefix": "/", "grant": "fly"},
			},
		},
	}

	if _, err := CreateAccessProvider(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for unknown grant flag, got nil")
	}
}

func TestCreateAuditSink_Console(t *testing.T) {
	cfg := &AuditConfig{Type: "console"}

	sink, err := CreateAuditSink(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create console sink: %v", err)
	}
	defer func() { _ = sink.Close() }()
}

func TestCreateAuditSink_BadgerInMemory(t *testing.T) {
	cfg := &AuditConfig{Type: "badger", Badger: map[string]any{"in_memory": true}}

	sink, err := CreateAuditSink(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create badger sink: %v", err)
	}
	defer func() { _ = sink.Close() }()
}

func TestCreateAuditSink_UnknownType(t *testing.T) {
	cfg := &AuditConfig{Type: "syslog"}

	if _, err := CreateAuditSink(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Expected error for unknown audit sink type, got nil")
	}
}
