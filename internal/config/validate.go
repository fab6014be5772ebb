package config

import (
	"errors"
	"fmt"
	"strings"

	"tracker-studio/internal/model"
	"tracker-studio/internal/params"
	"tracker-studio/internal/processor"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateService() error {
	if err := processor.ValidateEndpoint(c.Service.Endpoint); err != nil {
		return fmt.Errorf("service.endpoint: %w", err)
	}
	if c.Service.RequestTimeoutSeconds < 0 {
		return errors.New("service.request_timeout_seconds must be >= 0 (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.ContainsAny(c.Output.DownloadName, `/\`) {
		return fmt.Errorf("output.download_name must be a file name, got %q", c.Output.DownloadName)
	}
	return nil
}

func (c *Config) validateDefaults() error {
	d := c.Defaults
	ranges := map[string]int{
		model.FieldStrokeWidth: d.StrokeWidth,
		model.FieldMaxBlobs:    d.MaxBlobs,
		model.FieldMinSize:     d.MinSize,
	}
	for key, v := range ranges {
		spec, _ := params.Lookup(key)
		if v == 0 {
			continue
		}
		if v < spec.Min || v > spec.Max {
			return fmt.Errorf("defaults.%s must be between %d and %d, got %d", key, spec.Min, spec.Max, v)
		}
	}
	if _, err := params.FromParameters(c.Parameters()); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
