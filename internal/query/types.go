// Package query is the natural-language query layer: a parser that
// classifies free text into a fixed intent set and emits a
// parameterized SQL template, a security validator that gates every
// query before execution, and an optimizer that learns suggestion
// rankings from user feedback.
// Grounded on original_source/crates/savant-db/src/{main,security}.rs.
package query

// Intent is one of the fixed set of request classifications the parser
// can produce.
type Intent string

const (
	IntentFindConversations Intent = "find_conversations"
	IntentAnalyzeSpeaker    Intent = "analyze_speaker"
	IntentSearchContent     Intent = "search_content"
	IntentGetStatistics     Intent = "get_statistics"
	IntentListSpeakers      Intent = "list_speakers"
)

// ParsedQuery is the structured result of classifying a natural-language
// request: an intent, a parameterized SQL template, its positional
// parameters, and the parser's confidence in the classification.
type ParsedQuery struct {
	Intent     Intent
	SQL        string
	Params     []any
	Confidence float32
}

// FeedbackKind is the set of outcomes a caller can report back to the
// Optimizer after a query executes.
type FeedbackKind string

const (
	FeedbackGood        FeedbackKind = "good"
	FeedbackBadResults  FeedbackKind = "bad_results"
	FeedbackTooSlow     FeedbackKind = "too_slow"
	FeedbackWrongIntent FeedbackKind = "wrong_intent"
	FeedbackIrrelevant  FeedbackKind = "irrelevant"
)
