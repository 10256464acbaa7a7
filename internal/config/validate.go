package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. A missing API key is not an
// error here; commands that need one call RequireAPIKey.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	switch c.Gemini.Transport {
	case TransportREST, TransportGenAI:
	default:
		return fmt.Errorf("gemini.transport must be %q or %q, got %q", TransportREST, TransportGenAI, c.Gemini.Transport)
	}
	if len(c.Gemini.Models) == 0 {
		return errors.New("gemini.models must list at least one model")
	}
	if len(c.Gemini.APIVersions) == 0 {
		return errors.New("gemini.api_versions must list at least one version")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.MaxRetries < 1 {
		return errors.New("engine.max_retries must be at least 1")
	}
	if c.Engine.MaxRetries > maxRetriesLimit {
		return fmt.Errorf("engine.max_retries must be at most %d", maxRetriesLimit)
	}
	if c.Engine.BackoffBaseMS < 0 || c.Engine.BackoffJitterMS < 0 {
		return errors.New("engine backoff values must not be negative")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.RequestsPerMinute < 0 {
		return errors.New("ratelimit.requests_per_minute must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		return errors.New("ratelimit.burst must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
