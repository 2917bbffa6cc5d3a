package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatNumbersBlocksSequentially(t *testing.T) {
	segments := []Segment{
		{Start: 0.0, End: 1.5, Text: "Hello world"},
		{Start: 2.0, End: 4.123, Text: "Second line"},
		{Start: 5.0, End: 6.0, Text: "Third"},
	}

	out := Format(segments)
	blocks := strings.Split(strings.TrimSpace(out), "\n\n")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d:\n%s", len(blocks), out)
	}
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) != 3 {
			t.Fatalf("block %d malformed: %q", i, block)
		}
		if want := []string{"1", "2", "3"}[i]; lines[0] != want {
			t.Fatalf("block %d index = %q, want %q", i, lines[0], want)
		}
	}
	if !strings.Contains(out, "00:00:00,000 --> 00:00:01,500") {
		t.Fatalf("missing first cue timing:\n%s", out)
	}
	if !strings.Contains(out, "00:00:02,000 --> 00:00:04,123") {
		t.Fatalf("missing second cue timing:\n%s", out)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0.0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{4.123, "00:00:04,123"},
		{3661.2, "01:01:01,200"},
		{90000.0, "25:00:00,000"}, // hours do not wrap at 24
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatSanitizesArrowSequences(t *testing.T) {
	out := Format([]Segment{{Start: 0, End: 1, Text: "  go --> stop  "}})
	if strings.Contains(out, "go --> stop") {
		t.Fatalf("arrow sequence not sanitized:\n%s", out)
	}
	if !strings.Contains(out, "go -> stop") {
		t.Fatalf("expected sanitized text:\n%s", out)
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	segments := []Segment{
		{Start: 0.25, End: 2.75, Text: "same"},
		{Start: 3, End: 4, Text: "again"},
	}
	if Format(segments) != Format(segments) {
		t.Fatal("expected byte-identical output for identical input")
	}
}

func TestWriteRoundTripsThroughParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	segments := []Segment{{Start: 2.0, End: 4.123, Text: "line"}}
	if err := Write(path, segments); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			t.Fatalf("parse start: %v", err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			t.Fatalf("parse end: %v", err)
		}
		if start != 2.0 || end != 4.123 {
			t.Fatalf("round trip mismatch: start=%v end=%v", start, end)
		}
		return
	}
	t.Fatal("no timing line found")
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "1:2", "aa:bb:cc,ddd", "00:00:01"} {
		if _, err := ParseTimestamp(value); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", value)
		}
	}
}
