package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipflow/internal/config"
	"clipflow/internal/logging"
	"clipflow/internal/media"
	"clipflow/internal/queue"
	"clipflow/internal/scheduler"
	"clipflow/internal/services/tiktok"
	"clipflow/internal/services/twitch"
	"clipflow/internal/workflow"
)

type pollFlags struct {
	channels     []string
	intervalMin  int
	clipsPerPoll int
	whisperModel string
	dryRun       bool

	twitchClientID     string
	twitchClientSecret string
	tiktokAccessToken  string
	tiktokUploadURL    string
	tiktokPublishURL   string
}

func (f *pollFlags) register(cmd *cobra.Command, withInterval bool) {
	cmd.Flags().StringSliceVar(&f.channels, "channels", nil, "Channel logins to poll (overrides configuration)")
	cmd.Flags().IntVar(&f.clipsPerPoll, "clips-per-poll", 0, "Clips to consider per channel (overrides configuration)")
	cmd.Flags().StringVar(&f.whisperModel, "whisper-model", "", "Whisper model size (overrides configuration)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Simulate uploads without network publishing")
	cmd.Flags().StringVar(&f.twitchClientID, "twitch-client-id", "", "Twitch application client id (overrides configuration)")
	cmd.Flags().StringVar(&f.twitchClientSecret, "twitch-client-secret", "", "Twitch application client secret (overrides configuration)")
	cmd.Flags().StringVar(&f.tiktokAccessToken, "tiktok-access-token", "", "TikTok access token (overrides configuration)")
	cmd.Flags().StringVar(&f.tiktokUploadURL, "tiktok-upload-url", "", "TikTok upload endpoint (overrides configuration)")
	cmd.Flags().StringVar(&f.tiktokPublishURL, "tiktok-publish-url", "", "TikTok publish endpoint (overrides configuration)")
	if withInterval {
		cmd.Flags().IntVar(&f.intervalMin, "interval", 0, "Poll interval in minutes (overrides configuration)")
	}
}

func (f *pollFlags) apply(cfg *config.Config) error {
	if len(f.channels) > 0 {
		cfg.Scheduler.Channels = f.channels
	}
	if f.intervalMin > 0 {
		cfg.Scheduler.IntervalMinutes = f.intervalMin
	}
	if f.clipsPerPoll > 0 {
		cfg.Twitch.ClipsPerPoll = f.clipsPerPoll
	}
	if f.whisperModel != "" {
		cfg.Pipeline.WhisperModel = f.whisperModel
	}
	if f.twitchClientID != "" {
		cfg.Twitch.ClientID = f.twitchClientID
	}
	if f.twitchClientSecret != "" {
		cfg.Twitch.ClientSecret = f.twitchClientSecret
	}
	if f.tiktokAccessToken != "" {
		cfg.TikTok.AccessToken = f.tiktokAccessToken
	}
	if f.tiktokUploadURL != "" {
		cfg.TikTok.UploadURL = f.tiktokUploadURL
	}
	if f.tiktokPublishURL != "" {
		cfg.TikTok.PublishURL = f.tiktokPublishURL
	}
	if len(cfg.Scheduler.Channels) == 0 {
		return errors.New("no channels configured; set scheduler channels in the config file or pass --channels")
	}
	return cfg.Validate()
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &pollFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll channels continuously until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, logger, cleanup, err := buildDriver(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := driver.Start(sigCtx); err != nil {
				return err
			}
			logger.Info("clipflow running, press Ctrl+C to stop")
			<-sigCtx.Done()
			driver.Stop()
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newOnceCommand(ctx *commandContext) *cobra.Command {
	flags := &pollFlags{}
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single polling pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _, cleanup, err := buildDriver(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := driver.RunOnce(sigCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d uploaded, %d failed, %d skipped\n",
				summary.RunID, summary.Uploaded, summary.Failed, summary.Skipped)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

// buildDriver assembles the polling stack. The returned cleanup closes the
// store and must run after the driver stops.
func buildDriver(ctx *commandContext, flags *pollFlags) (*scheduler.Driver, *slog.Logger, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := flags.apply(cfg); err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.ValidateTwitchCredentials(); err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	simulate := flags.dryRun
	if !simulate && cfg.TikTok.AccessToken == "" {
		simulate = true
		logger.Warn("no tiktok access token configured, uploads will be simulated")
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	source := twitch.NewClient(cfg.Twitch)
	publisher := tiktok.NewClientFromConfig(cfg.TikTok, simulate)
	pipeline := media.NewProcessor(cfg, logger)
	dispatcher := workflow.NewDispatcher(cfg, store, source, publisher, pipeline, logger)
	driver := scheduler.New(cfg, dispatcher, logger)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close queue store", logging.Error(err))
		}
	}
	return driver, logger, cleanup, nil
}
