// Package stt implements local offline speech-to-text transcription
// backed by whisper.cpp, plus the model manager that downloads and
// selects ggml model files.
package stt

import "time"

// Config configures one transcription run.
type Config struct {
	ModelPath            string
	Language             string // empty = auto-detect
	TranslateToEnglish   bool
	Temperature          float32
	NoSpeechThreshold    float32
	EnableTimestamps     bool
	EnableWordTimestamps bool
	MaxTokens            int
}

// DefaultConfig mirrors the reference engine's defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:         "models/ggml-base.en.bin",
		Temperature:       0.0,
		NoSpeechThreshold: 0.6,
		EnableTimestamps:  true,
	}
}

// WordTimestamp is one word-level timing within a segment.
type WordTimestamp struct {
	Word       string
	StartTime  float64
	EndTime    float64
	Confidence *float32
}

// Segment is one transcribed span with timing.
type Segment struct {
	Text       string
	StartTime  float64
	EndTime    float64
	Confidence *float32
	Words      []WordTimestamp
}

// Result is the full transcription output for one audio clip.
type Result struct {
	Text           string
	Language       string
	Segments       []Segment
	ProcessingTime time.Duration
	ModelUsed      string
}
