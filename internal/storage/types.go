// Package storage is the single relational store for conversations,
// segments, speakers, detected coding tasks, visual frames, text
// extractions, and application-usage aggregates. Backed by
// modernc.org/sqlite, a pure-Go driver with no CGo build story, a good
// fit for a locally-distributed desktop binary.
// Grounded on original_source/crates/savant-db/src/{lib,main}.rs.
package storage

import "time"

// Conversation groups related segments under one session.
type Conversation struct {
	ID             string
	Title          *string
	StartTime      time.Time
	EndTime        *time.Time
	Context        *string
	Participants   []string
	SegmentCount   int64
	TotalDuration  float64
}

// Segment is one transcribed, attributed span of speech persisted
// against a conversation.
type Segment struct {
	ID             string
	ConversationID string
	Timestamp      time.Time
	Speaker        string
	AudioSource    string
	Text           string
	StartTime      float64
	EndTime        float64
	Confidence     *float32
	MetadataJSON   *string
}

// Query composes optional filters for segment reads; zero values are
// treated as "no filter" for that field.
type Query struct {
	ConversationID *string
	Speaker        *string
	AudioSource    *string
	StartTime      *time.Time
	EndTime        *time.Time
	TextContains   *string
	Limit          *int64
	Offset         *int64
}

// SpeakerStats aggregates conversational time per speaker.
type SpeakerStats struct {
	Speaker               string
	ConversationCount     int64
	TotalDurationSeconds  float64
	TotalSegments         int64
	AvgConfidence         float64
}

// VideoFrame is one row of the high-frequency frame tier.
type VideoFrame struct {
	ID               int64
	TimestampMs      int64
	SessionID        string
	FrameHash        string
	ChangeScore      float64
	FilePath         *string
	ScreenResolution *string
	ActiveApp        *string
	ProcessingFlags  *string
}

// TextExtraction is one OCR word row tied to a high-frequency frame.
type TextExtraction struct {
	FrameID          int64
	WordText         string
	Confidence       float64
	BBoxX            int
	BBoxY            int
	BBoxWidth        int
	BBoxHeight       int
	FontSizeEstimate *float64
	TextType         *string
	LineID           int
	ParagraphID      int
}

// DetectedTask is one reactive-detector finding persisted against its
// source frame.
type DetectedTask struct {
	ID          string
	FrameID     *int64
	DetectedAt  time.Time
	ProblemType string
	Language    *string
	Platform    *string
	Confidence  float64
	ProblemText *string
	SolutionCode *string
}
