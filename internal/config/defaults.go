package config

import (
	"os"
	"path/filepath"
	"strings"

	"tracker-studio/internal/params"
	"tracker-studio/internal/processor"
)

const (
	defaultConfigPath            = "~/.config/tracker-studio/config.toml"
	defaultProjectConfigName     = "tracker-studio.toml"
	defaultRequestTimeoutSeconds = 300
	defaultDownloadDir           = "~/Downloads"
	defaultDownloadName          = "pro_tracked_output.mp4"
	defaultLogDir                = "~/.local/state/tracker-studio/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	EndpointEnvVar = "TRACKER_STUDIO_ENDPOINT"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	c := params.New().Collect()
	return Config{
		Service: Service{
			Endpoint:              processor.DefaultEndpoint,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Output: Output{
			DownloadDir:  defaultDownloadDir,
			DownloadName: defaultDownloadName,
			CacheDir:     defaultCacheDir(),
		},
		Defaults: Defaults{
			Shape:       c.Shape,
			BoxColor:    c.BoxColor,
			StrokeWidth: c.StrokeWidth,
			Connection:  c.Connection,
			ConnColor:   c.ConnectionColor,
			LabelType:   c.LabelType,
			CustomText:  c.CustomText,
			TextColor:   c.TextColor,
			MaxBlobs:    c.MaxBlobs,
			MinSize:     c.MinBlobSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "tracker-studio")
	}
	return "~/.cache/tracker-studio"
}
