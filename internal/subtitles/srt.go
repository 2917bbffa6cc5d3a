package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Segment is one timed transcript span. Start and End are seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Format renders segments as an SRT body. Entries are numbered sequentially
// from 1 in input order regardless of any ordering field in the source data.
// Output is deterministic: identical input yields byte-identical output.
//
// The formatter never synthesizes content; callers substitute a full-span
// segment before calling when transcription produced no segments.
func Format(segments []Segment) string {
	var b strings.Builder
	for i, segment := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(segment.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(segment.End))
		b.WriteByte('\n')
		b.WriteString(sanitizeText(segment.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Write renders segments to an SRT file.
func Write(path string, segments []Segment) error {
	if err := os.WriteFile(path, []byte(Format(segments)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Hours are unbounded rather
// than wrapping at 24; the millisecond part comes from the fractional
// remainder after integer truncation.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	// Round the fractional remainder so values like 3661.2 (which floats
	// store as 3661.1999...) still land on the expected millisecond.
	millis := int(math.Round((seconds - float64(whole)) * 1000))
	if millis > 999 {
		millis = 999
	}
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp converts an SRT timestamp back to seconds. Periods are
// accepted in place of the standard comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// sanitizeText trims surrounding whitespace and defuses literal arrow
// sequences that would corrupt the cue timing line.
func sanitizeText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "-->", "->")
}
