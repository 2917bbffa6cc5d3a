package media

import (
	"encoding/json"
	"fmt"
	"os"

	"clipflow/internal/subtitles"
)

// Transcription is the result of running speech-to-text over a clip.
type Transcription struct {
	// Segments are the timed spans, possibly empty for silent clips.
	Segments []subtitles.Segment
	// Duration is the clip length in seconds when the engine reported one,
	// otherwise the end of the last segment.
	Duration float64
	// Text is the full transcript, used as the fallback caption body when no
	// segments exist.
	Text string
}

type whisperOutput struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// loadTranscription parses the JSON file whisper writes next to its input.
func loadTranscription(path string) (Transcription, error) {
	var result Transcription

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read transcript: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return result, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	result.Text = out.Text
	result.Duration = out.Duration
	for _, segment := range out.Segments {
		result.Segments = append(result.Segments, subtitles.Segment{
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
		})
	}
	if result.Duration == 0 && len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}
	return result, nil
}
