package stt

import (
	"fmt"
	"strings"
)

// FormatMarkdown renders a transcription result as a Markdown document
// with per-segment timestamps, the shape savctl's export subcommand
// writes to disk. Ported from savant-stt's markdown module.
func FormatMarkdown(r Result) string {
	var b strings.Builder
	b.WriteString("# Transcription\n\n")
	if r.Language != "" {
		fmt.Fprintf(&b, "**Language:** %s\n\n", r.Language)
	}
	if r.ModelUsed != "" {
		fmt.Fprintf(&b, "**Model:** %s\n\n", r.ModelUsed)
	}
	fmt.Fprintf(&b, "**Processing time:** %s\n\n", r.ProcessingTime)
	b.WriteString("## Segments\n\n")
	for _, seg := range r.Segments {
		fmt.Fprintf(&b, "- `[%s - %s]` %s\n", formatTimestamp(seg.StartTime), formatTimestamp(seg.EndTime), seg.Text)
	}
	return b.String()
}

// FormatPlainTranscript renders just the concatenated text, with no
// timestamps or metadata.
func FormatPlainTranscript(r Result) string {
	var b strings.Builder
	for i, seg := range r.Segments {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// formatTimestamp renders seconds as MM:SS.mmm.
func formatTimestamp(seconds float64) string {
	minutes := int(seconds) / 60
	secs := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%06.3f", minutes, secs)
}
