package config

const (
	defaultWorkDir             = "~/.local/share/clipflow/clips"
	defaultLogDir              = "~/.local/share/clipflow/logs"
	defaultTwitchTokenURL      = "https://id.twitch.tv/oauth2/token"
	defaultTwitchAPIBaseURL    = "https://api.twitch.tv/helix"
	defaultClipsPerPoll        = 10
	defaultWhisperModel        = "small"
	defaultYtdlpBinary         = "yt-dlp"
	defaultWhisperBinary       = "whisper"
	defaultFFmpegBinary        = "ffmpeg"
	defaultPipelineTimeout     = 1800
	defaultIntervalMinutes     = 60
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Twitch: Twitch{
			TokenURL:     defaultTwitchTokenURL,
			APIBaseURL:   defaultTwitchAPIBaseURL,
			ClipsPerPoll: defaultClipsPerPoll,
		},
		Pipeline: Pipeline{
			WhisperModel:   defaultWhisperModel,
			YtdlpBinary:    defaultYtdlpBinary,
			WhisperBinary:  defaultWhisperBinary,
			FFmpegBinary:   defaultFFmpegBinary,
			TimeoutSeconds: defaultPipelineTimeout,
		},
		Scheduler: Scheduler{
			IntervalMinutes: defaultIntervalMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
