package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tracker-studio/internal/config"
	"tracker-studio/internal/logging"
	"tracker-studio/internal/processor"
	"tracker-studio/internal/resultstore"
	"tracker-studio/internal/selection"
	"tracker-studio/internal/studio"
)

type commandContext struct {
	configFlag   *string
	endpointFlag *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, endpointFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		endpointFlag: endpointFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the configuration once and applies the global flag
// overrides on top of it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if endpoint := flagValue(c.endpointFlag); endpoint != "" {
			if err := processor.ValidateEndpoint(endpoint); err != nil {
				c.configErr = fmt.Errorf("--endpoint: %w", err)
				return
			}
			cfg.Service.Endpoint = endpoint
		}
		if level := strings.ToLower(flagValue(c.logLevelFlag)); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(interactive bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, interactive)
}

func (c *commandContext) newProcessor(cfg *config.Config, logger *slog.Logger, progress processor.ProgressFunc) (*processor.Client, error) {
	return processor.New(processor.Options{
		Endpoint: cfg.Service.Endpoint,
		Timeout:  cfg.RequestTimeout(),
		Logger:   logger,
		Progress: progress,
	})
}

// studioSession is everything a command needs to drive one controller.
type studioSession struct {
	cfg      *config.Config
	logger   *slog.Logger
	controls studio.ParameterSource
	results  *resultstore.Store
	ctrl     *studio.Controller
}

func (c *commandContext) openSession(interactive bool, controls studio.ParameterSource, upload *uploadProgress, notify func(*studio.Error)) (*studioSession, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(interactive)
	if err != nil {
		return nil, err
	}
	var progress processor.ProgressFunc
	if upload != nil {
		progress = upload.Observe
	}
	proc, err := c.newProcessor(cfg, logger, progress)
	if err != nil {
		return nil, err
	}
	results, err := resultstore.Open(cfg.Output.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}
	ctrl, err := studio.New(studio.Options{
		Selection: selection.NewStore(),
		Params:    controls,
		Processor: proc,
		Results:   results,
		Logger:    logger,
		Notify:    notify,
	})
	if err != nil {
		_ = results.Close()
		return nil, err
	}
	return &studioSession{cfg: cfg, logger: logger, controls: controls, results: results, ctrl: ctrl}, nil
}

func (s *studioSession) Close() {
	s.ctrl.Close()
	if err := s.results.Close(); err != nil {
		s.logger.Warn("remove result cache", slog.String("error", err.Error()))
	}
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
