package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownWhisperModels = map[string]struct{}{
	"tiny":   {},
	"base":   {},
	"small":  {},
	"medium": {},
	"large":  {},
}

// Validate ensures the configuration is usable. Credential checks live in
// ValidateTwitchCredentials so read-only commands can load a config without
// secrets configured.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateTwitchCredentials rejects configs missing the required source
// platform credentials. Run modes call this before any work begins.
func (c *Config) ValidateTwitchCredentials() error {
	if strings.TrimSpace(c.Twitch.ClientID) == "" || strings.TrimSpace(c.Twitch.ClientSecret) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clipflow/config.toml"
		}
		return fmt.Errorf("twitch.client_id and twitch.client_secret are required. Set TWITCH_CLIENT_ID/TWITCH_CLIENT_SECRET env vars or edit %s (create with 'clipflow config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if _, ok := knownWhisperModels[c.Pipeline.WhisperModel]; !ok {
		return fmt.Errorf("pipeline.whisper_model: unknown model %q (expected tiny, base, small, medium, or large)", c.Pipeline.WhisperModel)
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		return errors.New("pipeline.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.IntervalMinutes <= 0 {
		return errors.New("scheduler.interval_minutes must be positive")
	}
	if c.Twitch.ClipsPerPoll <= 0 || c.Twitch.ClipsPerPoll > 100 {
		return errors.New("twitch.clips_per_poll must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
