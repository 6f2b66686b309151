package config

import "fmt"

// Validator validates configuration comprehensively with clear error
// messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast: stops at the
// first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := v.validatePlugins(); err != nil {
		return fmt.Errorf("plugin validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server

	if s.ListenAddr == "" {
		return NewValidationError("server", "", "listen_addr", ErrMissingRequiredField)
	}
	if s.ConcurrencyCap < 1 {
		return NewValidationError("server", "", "concurrency_cap", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, s.ConcurrencyCap))
	}
	if s.ShutdownGrace <= 0 {
		return NewValidationError("server", "", "shutdown_grace", fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, s.ShutdownGrace))
	}

	return nil
}

func (v *Validator) validatePlugins() error {
	for id, defaults := range v.cfg.Plugins {
		if defaults.Concurrency < 1 {
			return NewValidationError("plugin", id, "concurrency", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, defaults.Concurrency))
		}
		if defaults.AttemptTimeout <= 0 {
			return NewValidationError("plugin", id, "attempt_timeout", fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, defaults.AttemptTimeout))
		}
		if defaults.Retries < 0 {
			return NewValidationError("plugin", id, "retries", fmt.Errorf("%w: must be non-negative, got %d", ErrInvalidValue, defaults.Retries))
		}
		if defaults.RetryBaseDelay <= 0 {
			return NewValidationError("plugin", id, "retry_base_delay", fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, defaults.RetryBaseDelay))
		}
		if defaults.RetryMaxDelay < defaults.RetryBaseDelay {
			return NewValidationError("plugin", id, "retry_max_delay", fmt.Errorf("%w: must be >= retry_base_delay, got max=%v base=%v", ErrInvalidValue, defaults.RetryMaxDelay, defaults.RetryBaseDelay))
		}
		if defaults.RatePerSecond < 0 {
			return NewValidationError("plugin", id, "rate_per_second", fmt.Errorf("%w: must be non-negative, got %v", ErrInvalidValue, defaults.RatePerSecond))
		}
	}

	return nil
}
