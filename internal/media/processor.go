package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"clipflow/internal/config"
	"clipflow/internal/logging"
	"clipflow/internal/services"
	"clipflow/internal/subtitles"
)

// Vertical output and caption style settings. These are fixed: every clip is
// rendered to the same 9:16 frame with the same burn-in style.
const (
	targetWidth  = 1080
	targetHeight = 1920
	subtitleFont = "Arial"
	subtitleSize = 48
	videoCRF     = "18"
	videoPreset  = "veryfast"
	audioBitrate = "128k"
)

// CommandRunner executes an external tool. Tests inject one to avoid running
// real binaries.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Processor turns a source clip into a vertical captioned video.
//
// Each step is idempotent only at the filesystem level: a download is skipped
// when the target file already exists, everything else re-runs. A failure at
// any step aborts the whole pipeline for that clip; partial artifacts are
// never treated as valid.
type Processor struct {
	workDir       string
	cfg           config.Pipeline
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewProcessor creates a pipeline bound to the configured work directory.
func NewProcessor(cfg *config.Config, logger *slog.Logger) *Processor {
	return &Processor{
		workDir: cfg.Paths.WorkDir,
		cfg:     cfg.Pipeline,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Processor) WithCommandRunner(runner CommandRunner) {
	p.commandRunner = runner
}

// Process runs the full pipeline: download, transcribe, caption, reformat.
// On success it returns the path of the final vertical video.
func (p *Processor) Process(ctx context.Context, clipURL, clipID string) (string, error) {
	videoPath, err := p.Download(ctx, clipURL, clipID)
	if err != nil {
		return "", err
	}

	transcription, err := p.Transcribe(ctx, videoPath, clipID)
	if err != nil {
		return "", err
	}

	srtPath, err := p.WriteCaptions(clipID, transcription)
	if err != nil {
		return "", err
	}

	return p.ReformatVertical(ctx, videoPath, srtPath, clipID)
}

// Download fetches the source media into the work directory, keyed by clip
// id. An existing file short-circuits the fetch; presence is the check, not
// content.
func (p *Processor) Download(ctx context.Context, clipURL, clipID string) (string, error) {
	outPath := filepath.Join(p.workDir, clipID+".mp4")
	if _, err := os.Stat(outPath); err == nil {
		p.logger.Info("clip already downloaded", logging.String(logging.FieldClipID, clipID))
		return outPath, nil
	}

	p.logger.Info("downloading clip",
		logging.String(logging.FieldClipID, clipID),
		logging.String("url", clipURL),
	)
	if err := p.run(ctx, p.cfg.YtdlpBinary, "-f", "best", "-o", outPath, clipURL); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "pipeline", "download", clipID, err)
	}
	return outPath, nil
}

// Transcribe runs speech-to-text over the downloaded media and parses the
// JSON transcript the engine writes into the work directory.
func (p *Processor) Transcribe(ctx context.Context, videoPath, clipID string) (Transcription, error) {
	p.logger.Info("transcribing clip",
		logging.String(logging.FieldClipID, clipID),
		logging.String("model", p.cfg.WhisperModel),
	)

	args := []string{
		videoPath,
		"--model", p.cfg.WhisperModel,
		"--output_format", "json",
		"--output_dir", p.workDir,
	}
	if err := p.run(ctx, p.cfg.WhisperBinary, args...); err != nil {
		return Transcription{}, services.Wrap(services.ErrExternalTool, "pipeline", "transcribe", clipID, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	transcription, err := loadTranscription(filepath.Join(p.workDir, baseName+".json"))
	if err != nil {
		return Transcription{}, services.Wrap(services.ErrExternalTool, "pipeline", "transcribe", clipID, err)
	}
	return transcription, nil
}

// WriteCaptions renders the transcript as an SRT file. When transcription
// yielded no segments, a single synthetic segment spanning the whole clip
// carries the full transcript text instead.
func (p *Processor) WriteCaptions(clipID string, transcription Transcription) (string, error) {
	segments := transcription.Segments
	if len(segments) == 0 {
		segments = []subtitles.Segment{{
			Start: 0,
			End:   transcription.Duration,
			Text:  transcription.Text,
		}}
	}

	srtPath := filepath.Join(p.workDir, clipID+".srt")
	if err := subtitles.Write(srtPath, segments); err != nil {
		return "", fmt.Errorf("write captions for %s: %w", clipID, err)
	}
	return srtPath, nil
}

// ReformatVertical transcodes to a 1080x1920 frame, scaling to fit the width,
// padding to center vertically, and burning the captions into the stream.
func (p *Processor) ReformatVertical(ctx context.Context, videoPath, srtPath, clipID string) (string, error) {
	outPath := filepath.Join(p.workDir, clipID+"_vertical.mp4")

	filter := fmt.Sprintf(
		"scale=%d:-2,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,subtitles=%s:force_style='FontName=%s,FontSize=%d'",
		targetWidth, targetWidth, targetHeight, srtPath, subtitleFont, subtitleSize,
	)
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-crf", videoCRF,
		"-preset", videoPreset,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		outPath,
	}

	p.logger.Info("reformatting to vertical", logging.String(logging.FieldClipID, clipID))
	if err := p.run(ctx, p.cfg.FFmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "pipeline", "reformat", clipID, err)
	}
	return outPath, nil
}

// run executes a command, using the custom runner if set.
func (p *Processor) run(ctx context.Context, name string, args ...string) error {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}

	if p.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
