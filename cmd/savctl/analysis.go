package main

import (
	"sort"
	"strings"

	"github.com/watchloop/observatory/internal/storage"
)

// stopWords excludes the highest-frequency function words from keyword
// extraction so the result is the conversation's actual vocabulary, not
// "the"/"and"/"a" repeated back.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "is": {}, "it": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"i": {}, "you": {}, "we": {}, "they": {}, "he": {}, "she": {}, "be": {}, "was": {},
	"are": {}, "so": {}, "at": {}, "as": {}, "do": {}, "does": {}, "have": {}, "has": {},
}

// conversationAnalysis summarizes a conversation's segments. There is no
// sentiment or summarization model anywhere in the corpus to ground a
// real NLP pipeline on, so this reports what can be computed directly
// from stored segments: duration, participants, and the highest-
// frequency non-stopword terms as a stand-in for "topics"/"key phrases".
type conversationAnalysis struct {
	ConversationID   string   `json:"conversation_id"`
	DurationSeconds  float64  `json:"duration_seconds"`
	ParticipantCount int      `json:"participant_count"`
	SegmentCount     int      `json:"segment_count"`
	TopKeywords      []string `json:"top_keywords"`
}

func analyzeConversation(segments []storage.Segment) conversationAnalysis {
	speakers := make(map[string]struct{})
	freq := make(map[string]int)
	var duration float64

	for _, seg := range segments {
		speakers[seg.Speaker] = struct{}{}
		if d := seg.EndTime - seg.StartTime; d > 0 {
			duration += d
		}
		for _, word := range strings.Fields(strings.ToLower(seg.Text)) {
			word = strings.Trim(word, ".,!?;:\"'()")
			if len(word) < 3 {
				continue
			}
			if _, skip := stopWords[word]; skip {
				continue
			}
			freq[word]++
		}
	}

	return conversationAnalysis{
		DurationSeconds:  duration,
		ParticipantCount: len(speakers),
		SegmentCount:     len(segments),
		TopKeywords:      topN(freq, 10),
	}
}

func topN(freq map[string]int, n int) []string {
	type kv struct {
		word  string
		count int
	}
	ranked := make([]kv, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, kv{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	words := make([]string, len(ranked))
	for i, r := range ranked {
		words[i] = r.word
	}
	return words
}
