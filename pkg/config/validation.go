package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The S3 backend cannot run without a bucket.
	if cfg.Storage.Type == "s3" {
		bucket, _ := cfg.Storage.S3["bucket"].(string)
		if bucket == "" {
			return fmt.Errorf("storage.s3: bucket is required when storage.type is s3")
		}
	}

	// Bearer-token verification needs a signing secret.
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" {
		return fmt.Errorf("auth: secret is required when auth is enabled")
	}

	// The badger audit sink needs a place to write unless it is in-memory.
	if cfg.Audit.Type == "badger" {
		inMemory, _ := cfg.Audit.Badger["in_memory"].(bool)
		path, _ := cfg.Audit.Badger["path"].(string)

		if !inMemory && path == "" {
			return fmt.Errorf("audit.badger: path is required unless in_memory is true")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}

	return err
}
