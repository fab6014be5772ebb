package config

import (
	"fmt"
	"os"
	"strings"

	"tracker-studio/internal/model"
	"tracker-studio/internal/params"
)

func (c *Config) normalize() error {
	c.normalizeService()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeDefaults(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeService() {
	if value, ok := os.LookupEnv(EndpointEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Service.Endpoint = value
	}
	c.Service.Endpoint = strings.TrimSpace(c.Service.Endpoint)
}

func (c *Config) normalizeOutput() error {
	var err error
	if strings.TrimSpace(c.Output.DownloadDir) == "" {
		c.Output.DownloadDir = defaultDownloadDir
	}
	if c.Output.DownloadDir, err = expandPath(c.Output.DownloadDir); err != nil {
		return fmt.Errorf("output.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Output.CacheDir) == "" {
		c.Output.CacheDir = defaultCacheDir()
	}
	if c.Output.CacheDir, err = expandPath(c.Output.CacheDir); err != nil {
		return fmt.Errorf("output.cache_dir: %w", err)
	}
	c.Output.DownloadName = strings.TrimSpace(c.Output.DownloadName)
	if c.Output.DownloadName == "" {
		c.Output.DownloadName = defaultDownloadName
	}
	return nil
}

func (c *Config) normalizeDefaults() error {
	d := &c.Defaults
	for _, color := range []struct {
		key   string
		value *string
	}{
		{"defaults.box_color", &d.BoxColor},
		{"defaults.conn_color", &d.ConnColor},
		{"defaults.text_color", &d.TextColor},
	} {
		if strings.TrimSpace(*color.value) == "" {
			continue
		}
		v, err := params.NormalizeColor(*color.value)
		if err != nil {
			return fmt.Errorf("%s: %w", color.key, err)
		}
		*color.value = v
	}
	for _, sel := range []struct {
		key   string
		value *string
	}{
		{model.FieldShape, &d.Shape},
		{model.FieldConnection, &d.Connection},
		{model.FieldLabelType, &d.LabelType},
	} {
		if strings.TrimSpace(*sel.value) == "" {
			continue
		}
		v, ok := params.CanonicalOption(sel.key, *sel.value)
		if !ok {
			spec, _ := params.Lookup(sel.key)
			return fmt.Errorf("defaults.%s must be one of: %s", sel.key, strings.Join(spec.Options, ", "))
		}
		*sel.value = v
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
