package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTwitch()
	c.normalizeTikTok()
	c.normalizePipeline()
	c.normalizeScheduler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTwitch() {
	if c.Twitch.ClientID == "" {
		c.Twitch.ClientID = os.Getenv("TWITCH_CLIENT_ID")
	}
	if c.Twitch.ClientSecret == "" {
		c.Twitch.ClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	}
	c.Twitch.TokenURL = strings.TrimSpace(c.Twitch.TokenURL)
	if c.Twitch.TokenURL == "" {
		c.Twitch.TokenURL = defaultTwitchTokenURL
	}
	c.Twitch.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Twitch.APIBaseURL), "/")
	if c.Twitch.APIBaseURL == "" {
		c.Twitch.APIBaseURL = defaultTwitchAPIBaseURL
	}
	if c.Twitch.ClipsPerPoll <= 0 {
		c.Twitch.ClipsPerPoll = defaultClipsPerPoll
	}
}

func (c *Config) normalizeTikTok() {
	if c.TikTok.AccessToken == "" {
		c.TikTok.AccessToken = os.Getenv("TIKTOK_ACCESS_TOKEN")
	}
	if c.TikTok.UploadURL == "" {
		c.TikTok.UploadURL = os.Getenv("TIKTOK_UPLOAD_URL")
	}
	if c.TikTok.PublishURL == "" {
		c.TikTok.PublishURL = os.Getenv("TIKTOK_PUBLISH_URL")
	}
	c.TikTok.UploadURL = strings.TrimSpace(c.TikTok.UploadURL)
	c.TikTok.PublishURL = strings.TrimSpace(c.TikTok.PublishURL)
}

func (c *Config) normalizePipeline() {
	if strings.TrimSpace(c.Pipeline.WhisperModel) == "" {
		c.Pipeline.WhisperModel = defaultWhisperModel
	}
	if strings.TrimSpace(c.Pipeline.YtdlpBinary) == "" {
		c.Pipeline.YtdlpBinary = defaultYtdlpBinary
	}
	if strings.TrimSpace(c.Pipeline.WhisperBinary) == "" {
		c.Pipeline.WhisperBinary = defaultWhisperBinary
	}
	if strings.TrimSpace(c.Pipeline.FFmpegBinary) == "" {
		c.Pipeline.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		c.Pipeline.TimeoutSeconds = defaultPipelineTimeout
	}
}

func (c *Config) normalizeScheduler() {
	channels := make([]string, 0, len(c.Scheduler.Channels))
	for _, channel := range c.Scheduler.Channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		channels = append(channels, channel)
	}
	c.Scheduler.Channels = channels
	if c.Scheduler.IntervalMinutes <= 0 {
		c.Scheduler.IntervalMinutes = defaultIntervalMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
