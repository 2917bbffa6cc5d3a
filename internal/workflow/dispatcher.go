package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"clipflow/internal/config"
	"clipflow/internal/logging"
	"clipflow/internal/queue"
	"clipflow/internal/services"
	"clipflow/internal/services/tiktok"
	"clipflow/internal/services/twitch"
)

const jobName = "poll"

// ClipSource lists candidate clips for a channel.
type ClipSource interface {
	ResolveChannel(ctx context.Context, login string) (string, error)
	ListTopClips(ctx context.Context, broadcasterID string, limit int) ([]twitch.Clip, error)
}

// Publisher sends a finished video to the destination platform.
type Publisher interface {
	UploadVideo(ctx context.Context, path, title, description string) (tiktok.Result, error)
	Simulated() bool
}

// Pipeline converts a source clip into an uploadable video file.
type Pipeline interface {
	Process(ctx context.Context, clipURL, clipID string) (string, error)
}

// Summary reports what a single dispatch pass did.
type Summary struct {
	RunID    string
	Uploaded int
	Failed   int
	Skipped  int
}

// Dispatcher drives one polling pass: it resolves each configured channel,
// lists its top clips, and pushes every unseen clip through the pipeline and
// up to the destination platform.
//
// Failures are isolated per clip and per channel. A clip that fails keeps its
// failed row and never blocks later clips; a channel that cannot be resolved
// is skipped for the pass.
type Dispatcher struct {
	store        *queue.Store
	source       ClipSource
	publisher    Publisher
	pipeline     Pipeline
	channels     []string
	clipsPerPoll int
	logger       *slog.Logger
}

// NewDispatcher wires a dispatcher from its collaborators.
func NewDispatcher(cfg *config.Config, store *queue.Store, source ClipSource, publisher Publisher, pipeline Pipeline, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:        store,
		source:       source,
		publisher:    publisher,
		pipeline:     pipeline,
		channels:     cfg.Scheduler.Channels,
		clipsPerPoll: cfg.Twitch.ClipsPerPoll,
		logger:       logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// RunOnce executes a single polling pass over all configured channels and
// records the pass in the job audit table. Only context cancellation aborts
// the pass early.
func (d *Dispatcher) RunOnce(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := d.logger.With(logging.String(logging.FieldRunID, summary.RunID))
	logger.Info("starting poll",
		logging.Int("channels", len(d.channels)),
		logging.Bool("simulate", d.publisher.Simulated()),
	)

	var lastError string
	for _, channel := range d.channels {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := d.processChannel(ctx, logger, channel, &summary); err != nil {
			lastError = err.Error()
			logger.Warn("channel skipped",
				logging.String(logging.FieldChannel, channel),
				logging.String("kind", services.Kind(err)),
				logging.Error(err),
			)
		}
	}

	if err := d.store.RecordJobRun(ctx, jobName, summary.RunID, lastError, summary.Uploaded, summary.Failed); err != nil {
		return summary, err
	}
	logger.Info("poll finished",
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (d *Dispatcher) processChannel(ctx context.Context, logger *slog.Logger, channel string, summary *Summary) error {
	logger = logger.With(logging.String(logging.FieldChannel, channel))

	broadcasterID, err := d.source.ResolveChannel(ctx, channel)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Info("channel not found")
			return nil
		}
		return err
	}

	clips, err := d.source.ListTopClips(ctx, broadcasterID, d.clipsPerPoll)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Info("no clips for channel")
			return nil
		}
		return err
	}

	for _, clip := range clips {
		if err := ctx.Err(); err != nil {
			return err
		}
		existing, err := d.store.GetByClipID(ctx, clip.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			summary.Skipped++
			logger.Debug("clip already tracked",
				logging.String(logging.FieldClipID, clip.ID),
				logging.String("status", string(existing.Status)),
			)
			continue
		}
		d.processClip(ctx, logger, clip, summary)
	}
	return nil
}

// processClip claims the clip before any work so a crash mid-pipeline leaves
// an inspectable processing row rather than re-running the clip forever.
func (d *Dispatcher) processClip(ctx context.Context, logger *slog.Logger, clip twitch.Clip, summary *Summary) {
	logger = logger.With(logging.String(logging.FieldClipID, clip.ID))

	if _, err := d.store.InsertProcessing(ctx, clip.ID, clip.URL, clip.Title, clip.BroadcasterName); err != nil {
		summary.Failed++
		logger.Error("claim clip", logging.Error(err))
		return
	}
	logger.Info("processing clip",
		logging.String("title", clip.Title),
		logging.Int("views", clip.ViewCount),
	)

	videoPath, err := d.pipeline.Process(ctx, clip.URL, clip.ID)
	if err != nil {
		d.fail(ctx, logger, clip.ID, err, summary)
		return
	}

	result, err := d.publisher.UploadVideo(ctx, videoPath, clip.Title, uploadDescription(clip))
	if err != nil {
		d.fail(ctx, logger, clip.ID, err, summary)
		return
	}

	if err := d.store.MarkUploaded(ctx, clip.ID, result.VideoID, result.URL); err != nil {
		summary.Failed++
		logger.Error("record upload", logging.Error(err))
		return
	}
	summary.Uploaded++
	logger.Info("clip uploaded",
		logging.String("video_id", result.VideoID),
		logging.String("upload_status", result.Status),
	)
}

func (d *Dispatcher) fail(ctx context.Context, logger *slog.Logger, clipID string, cause error, summary *Summary) {
	summary.Failed++
	logger.Error("clip failed",
		logging.String("kind", services.Kind(cause)),
		logging.Error(cause),
	)
	if err := d.store.MarkFailed(ctx, clipID, cause.Error()); err != nil {
		logger.Error("record failure", logging.Error(err))
	}
}

func uploadDescription(clip twitch.Clip) string {
	if clip.BroadcasterName == "" {
		return clip.Title
	}
	return clip.Title + " | " + clip.BroadcasterName
}
