package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tracker-studio/internal/model"
)

//go:embed sample_config.toml
var sampleConfig string

// Service describes the remote processing endpoint.
type Service struct {
	Endpoint              string `toml:"endpoint"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Output controls where results are cached and downloaded.
type Output struct {
	DownloadDir  string `toml:"download_dir"`
	DownloadName string `toml:"download_name"`
	CacheDir     string `toml:"cache_dir"`
}

// Defaults seeds the studio controls. Keys match the multipart field names.
type Defaults struct {
	Shape       string `toml:"shape"`
	BoxColor    string `toml:"box_color"`
	StrokeWidth int    `toml:"stroke_width"`
	Connection  string `toml:"connection"`
	ConnColor   string `toml:"conn_color"`
	LabelType   string `toml:"label_type"`
	CustomText  string `toml:"custom_text"`
	TextColor   string `toml:"text_color"`
	MaxBlobs    int    `toml:"max_blobs"`
	MinSize     int    `toml:"min_size"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

type Config struct {
	Service  Service  `toml:"service"`
	Output   Output   `toml:"output"`
	Defaults Defaults `toml:"defaults"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults are returned with exists=false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// RequestTimeout is zero when timeouts are disabled.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Service.RequestTimeoutSeconds) * time.Second
}

// DownloadPath is where a result is saved when no explicit path is given.
func (c *Config) DownloadPath() string {
	return filepath.Join(c.Output.DownloadDir, c.Output.DownloadName)
}

// Parameters returns the configured control defaults as render parameters.
func (c *Config) Parameters() model.RenderParameters {
	d := c.Defaults
	return model.RenderParameters{
		Shape:           d.Shape,
		BoxColor:        d.BoxColor,
		StrokeWidth:     d.StrokeWidth,
		Connection:      d.Connection,
		ConnectionColor: d.ConnColor,
		LabelType:       d.LabelType,
		CustomText:      d.CustomText,
		TextColor:       d.TextColor,
		MaxBlobs:        d.MaxBlobs,
		MinBlobSize:     d.MinSize,
	}
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Output.CacheDir, c.Logging.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample file contents.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left alone unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
