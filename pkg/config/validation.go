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
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// An interval longer than the timeout would make the poller give
	// up after a single check.
	if cfg.Polling.Interval > cfg.Polling.Timeout {
		return fmt.Errorf("polling: interval (%s) must not exceed timeout (%s)",
			cfg.Polling.Interval, cfg.Polling.Timeout)
	}

	// A persistent metadata store needs a location unless it runs
	// purely in memory.
	if cfg.Metadata.Type == "badger" {
		dir, _ := cfg.Metadata.Badger["dir"].(string)
		inMemory, _ := cfg.Metadata.Badger["in_memory"].(bool)
		if dir == "" && !inMemory {
			return fmt.Errorf("metadata.badger: dir is required unless in_memory is true")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
