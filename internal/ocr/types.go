// Package ocr implements the preprocess -> extract -> classify -> aggregate
// text-extraction pipeline described for screen frames.
package ocr

import "time"

// TextType is the semantic class assigned to a word or text block.
type TextType int

const (
	TextUnknown TextType = iota
	TextCode
	TextTerminalOutput
	TextChatMessage
	TextEmailContent
	TextWebPageContent
	TextMeetingContent
	TextBrowserUI
	TextIDEContent
	TextErrorMessage
	TextSystemDialog
	TextMenuBar
	TextStatusBar
	TextButton
	TextLabel
	TextField
	TextDocument
	TextUIElement
)

func (t TextType) String() string {
	names := [...]string{
		"unknown", "code", "terminal_output", "chat_message", "email_content",
		"web_page_content", "meeting_content", "browser_ui", "ide_content",
		"error_message", "system_dialog", "menu_bar", "status_bar", "button",
		"label", "text_field", "document", "ui_element",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// BoundingBox is an axis-aligned pixel-space box.
type BoundingBox struct {
	X, Y, Width, Height int
}

// Word is a single recognized word with spatial and semantic metadata.
type Word struct {
	Text          string
	Confidence    float32
	Box           BoundingBox
	FontSize      *float32
	Type          TextType
	LineID        int
	ParagraphID   int
}

// Line groups words sharing a LineID.
type Line struct {
	Text       string
	Box        BoundingBox
	WordCount  int
	Confidence float32
}

// Paragraph groups lines sharing a ParagraphID.
type Paragraph struct {
	Text       string
	Box        BoundingBox
	LineCount  int
	Confidence float32
}

// Region is a vertical screen band: header, main_content, or footer.
type Region struct {
	Kind    string
	Box     BoundingBox
	Content string
}

// CodeBlock is an aggregated run of TextCode words with a guessed language.
type CodeBlock struct {
	Text     string
	Language string
	Box      BoundingBox
}

// ChatMessage is a TextChatMessage line with an optional parsed sender.
type ChatMessage struct {
	Sender string
	Text   string
	Box    BoundingBox
}

// Structured is the aggregated, semantically-grouped view of a frame's text.
type Structured struct {
	CodeBlocks   []CodeBlock
	UIElements   []Word
	ChatMessages []ChatMessage
	Document     string
}

// Result is the full output of the OCR pipeline for one frame.
type Result struct {
	RawText           string
	Words             []Word
	Lines             []Line
	Paragraphs        []Paragraph
	Regions           []Region
	Structured        Structured
	OverallConfidence float32
	ProcessingTime    time.Duration
	Language          string
	TimedOut          bool
	Width, Height     int
}
