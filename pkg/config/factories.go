package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/access"
	"github.com/bucketfm/bucketfm/pkg/access/static"
	"github.com/bucketfm/bucketfm/pkg/audit"
	"github.com/bucketfm/bucketfm/pkg/audit/badgersink"
	"github.com/bucketfm/bucketfm/pkg/audit/console"
	"github.com/bucketfm/bucketfm/pkg/storage"
	storageMemory "github.com/bucketfm/bucketfm/pkg/storage/memory"
	storageS3 "github.com/bucketfm/bucketfm/pkg/storage/s3"
)

// CreateStore creates a storage backend based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "s3": Amazon S3 or any S3-compatible object store (MinIO, Localstack)
//   - "memory": in-memory storage, ephemeral, for tests and local development
func CreateStore(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Type {
	case "s3":
		return createS3Store(ctx, cfg.S3, logger)
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return storageMemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend type: %q (supported: s3, memory)", cfg.Type)
	}
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, options map[string]any, logger *zap.Logger) (storage.Store, error) {
	type S3StoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3StoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 storage config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 storage: bucket is required")
	}

	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 storage: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint enables MinIO / Localstack deployments.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain.
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Retry transient S3 failures (502, 503, timeouts) more aggressively
	// than the AWS default of 3 attempts.
	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack.
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := storageS3.New(ctx, storageS3.Config{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage backend: %w", err)
	}

	logger.Info("S3 storage backend initialized",
		zap.String("bucket", storeCfg.Bucket),
		zap.String("region", storeCfg.Region),
		zap.String("key_prefix", storeCfg.KeyPrefix),
	)

	return store, nil
}

// CreateAccessProvider creates a permission provider based on configuration.
//
// Supported types:
//   - "allowall": every user holds every permission everywhere
//   - "static": permissions come from a fixed rule list in the config file
func CreateAccessProvider(ctx context.Context, cfg *AccessConfig) (access.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "allowall":
		return access.AllowAll{}, nil
	case "static":
		return createStaticProvider(cfg.Static)
	default:
		return nil, fmt.Errorf("unknown access provider type: %q (supported: allowall, static)", cfg.Type)
	}
}

// createStaticProvider decodes the rule list and builds a static provider.
func createStaticProvider(options map[string]any) (access.Provider, error) {
	type StaticRule struct {
		PathPrefix string `mapstructure:"path_prefix"`
		Role       string `mapstructure:"role"`
		Grant      string `mapstructure:"grant"`
	}

	type StaticProviderConfig struct {
		Rules []StaticRule `mapstructure:"rules"`
	}

	var providerCfg StaticProviderConfig
	if err := mapstructure.Decode(options, &providerCfg); err != nil {
		return nil, fmt.Errorf("failed to decode static access provider config: %w", err)
	}

	if len(providerCfg.Rules) == 0 {
		return nil, fmt.Errorf("static access provider: at least one rule is required")
	}

	rules := make([]static.Rule, 0, len(providerCfg.Rules))

	for i, raw := range providerCfg.Rules {
		grant, err := static.ParseFlags(raw.Grant)
		if err != nil {
			return nil, fmt.Errorf("static access provider: rule %d: %w", i, err)
		}

		rules = append(rules, static.Rule{
			PathPrefix: raw.PathPrefix,
			Role:       raw.Role,
			Grant:      grant,
		})
	}

	provider, err := static.New(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create static access provider: %w", err)
	}

	return provider, nil
}

// CreateAuditSink creates an audit sink based on configuration.
//
// Supported types:
//   - "console": events go to the structured log
//   - "badger": events persist in a BadgerDB database and can be queried
func CreateAuditSink(ctx context.Context, cfg *AuditConfig, logger *zap.Logger) (audit.Sink, error) {
	switch cfg.Type {
	case "console":
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return console.New(logger), nil
	case "badger":
		return createBadgerSink(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown audit sink type: %q (supported: console, badger)", cfg.Type)
	}
}

// createBadgerSink creates a BadgerDB-backed persistent audit sink.
func createBadgerSink(ctx context.Context, options map[string]any) (audit.Sink, error) {
	type BadgerSinkOptions struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var sinkOpts BadgerSinkOptions
	if err := mapstructure.Decode(options, &sinkOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger audit sink options: %w", err)
	}

	sink, err := badgersink.New(ctx, badgersink.Config{
		Path:     sinkOpts.Path,
		InMemory: sinkOpts.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger audit sink: %w", err)
	}

	return sink, nil
}
