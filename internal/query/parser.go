package query

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/trace"
)

// PatternParser classifies natural-language requests into an Intent
// using a small keyword cascade, the always-available fallback when no
// LLM dispatcher is configured or the LLM parser itself fails.
type PatternParser struct{}

// NewPatternParser constructs the keyword-based classifier.
func NewPatternParser() *PatternParser { return &PatternParser{} }

// Parse classifies text and emits a parameterized SQL template for it.
// Confidence reflects how specific the matched keywords were, not the
// correctness of the resulting SQL.
func (p *PatternParser) Parse(text string) ParsedQuery {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "analyze speaker", "speaker stats", "speaker details", "about speaker"):
		return ParsedQuery{
			Intent:     IntentAnalyzeSpeaker,
			SQL:        "SELECT * FROM speakers WHERE name = ?",
			Params:     []any{extractQuotedOrLastWord(text)},
			Confidence: 0.8,
		}
	case containsAny(lower, "who spoke", "list speaker", "all speakers", "speakers in"):
		return ParsedQuery{
			Intent:     IntentListSpeakers,
			SQL:        "SELECT * FROM speakers ORDER BY name",
			Confidence: 0.8,
		}
	case containsAny(lower, "how many", "statistic", "stats", "count of"):
		return ParsedQuery{
			Intent:     IntentGetStatistics,
			SQL:        "SELECT COUNT(*) AS total FROM conversations",
			Confidence: 0.75,
		}
	case containsAny(lower, "find conversation", "conversations about", "conversations with"):
		return ParsedQuery{
			Intent:     IntentFindConversations,
			SQL:        "SELECT * FROM conversations WHERE title LIKE ?",
			Params:     []any{"%" + extractQuotedOrLastWord(text) + "%"},
			Confidence: 0.75,
		}
	case containsAny(lower, "search", "mentioned", "find text", "contains"):
		return ParsedQuery{
			Intent:     IntentSearchContent,
			SQL:        "SELECT * FROM segments_fts WHERE segments_fts MATCH ?",
			Params:     []any{extractQuotedOrLastWord(text)},
			Confidence: 0.7,
		}
	default:
		return ParsedQuery{
			Intent:     IntentSearchContent,
			SQL:        "SELECT * FROM segments_fts WHERE segments_fts MATCH ?",
			Params:     []any{text},
			Confidence: 0.3,
		}
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// extractQuotedOrLastWord pulls a quoted substring out of text if one is
// present, else falls back to the last word — a cheap stand-in for a
// real entity extractor, good enough to fill a parameter slot.
func extractQuotedOrLastWord(text string) string {
	if start := strings.IndexByte(text, '\''); start >= 0 {
		if end := strings.IndexByte(text[start+1:], '\''); end >= 0 {
			return text[start+1 : start+1+end]
		}
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], ".,?!")
}

// llmParseResult is the JSON shape the LLM parser's system prompt asks
// the model to return.
type llmParseResult struct {
	Intent     string `json:"intent"`
	SQL        string `json:"sql"`
	Params     []any  `json:"params"`
	Confidence float32 `json:"confidence"`
}

const llmParserSystemPrompt = `You translate a user's natural-language request about a conversation
database into a single JSON object with fields: intent (one of
"find_conversations", "analyze_speaker", "search_content",
"get_statistics", "list_speakers"), sql (a single parameterized SELECT
statement using ? placeholders), params (an array of the values for
those placeholders, in order), and confidence (a number from 0 to 1).
Respond with the JSON object only, no surrounding text.`

// LLMParser classifies natural-language requests with an LLM, falling
// back to pattern matching on any failure or malformed response.
type LLMParser struct {
	dispatcher *llmx.Dispatcher
	fallback   *PatternParser
}

// NewLLMParser wraps a dispatcher with a pattern-matching fallback.
func NewLLMParser(dispatcher *llmx.Dispatcher) *LLMParser {
	return &LLMParser{dispatcher: dispatcher, fallback: NewPatternParser()}
}

// Parse asks the LLM to classify text, falling back to the pattern
// parser if the model is unavailable or returns something unparseable.
func (p *LLMParser) Parse(ctx context.Context, text string) ParsedQuery {
	ctx, span := trace.StartSpan(ctx, "query_llm_parse")
	defer span.End()

	raw, err := p.dispatcher.Complete(ctx, llmParserSystemPrompt, text)
	if err != nil {
		trace.Logger(ctx).Warn("llm intent parse failed, falling back to patterns", "error", err)
		return p.fallback.Parse(text)
	}

	parsed, err := parseLLMResult(raw)
	if err != nil {
		trace.Logger(ctx).Warn("llm intent parse returned unparseable JSON, falling back", "error", err)
		return p.fallback.Parse(text)
	}

	span.SetAttr("intent", string(parsed.Intent))
	return parsed
}

func parseLLMResult(raw string) (ParsedQuery, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var result llmParseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return ParsedQuery{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeLLMInvalidResponse,
			"llm intent response was not valid JSON")
	}
	if result.SQL == "" {
		return ParsedQuery{}, apperrors.New(apperrors.KindSurfaced, apperrors.CodeLLMInvalidResponse,
			"llm intent response had no sql field")
	}

	return ParsedQuery{
		Intent:     Intent(result.Intent),
		SQL:        result.SQL,
		Params:     result.Params,
		Confidence: result.Confidence,
	}, nil
}
