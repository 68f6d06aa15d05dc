package main

import (
	"testing"

	"github.com/watchloop/observatory/internal/storage"
)

func TestAnalyzeConversationCountsParticipantsAndDuration(t *testing.T) {
	segments := []storage.Segment{
		{Speaker: "alice", Text: "the weather report is cloudy today", StartTime: 0, EndTime: 5},
		{Speaker: "bob", Text: "cloudy weather again tomorrow", StartTime: 5, EndTime: 9},
	}

	got := analyzeConversation(segments)
	if got.ParticipantCount != 2 {
		t.Errorf("ParticipantCount = %d, want 2", got.ParticipantCount)
	}
	if got.SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", got.SegmentCount)
	}
	if got.DurationSeconds != 9 {
		t.Errorf("DurationSeconds = %v, want 9", got.DurationSeconds)
	}
	if len(got.TopKeywords) == 0 {
		t.Fatal("TopKeywords is empty, want at least one keyword")
	}
	if got.TopKeywords[0] != "cloudy" && got.TopKeywords[0] != "weather" {
		t.Errorf("TopKeywords[0] = %q, want the most frequent term (cloudy or weather)", got.TopKeywords[0])
	}
}

func TestAnalyzeConversationExcludesStopWords(t *testing.T) {
	segments := []storage.Segment{
		{Speaker: "alice", Text: "the and or but is it to of in on for with that this"},
	}
	got := analyzeConversation(segments)
	if len(got.TopKeywords) != 0 {
		t.Errorf("TopKeywords = %v, want empty (all stop words)", got.TopKeywords)
	}
}

func TestTopNLimitsAndBreaksTiesAlphabetically(t *testing.T) {
	freq := map[string]int{"zebra": 1, "apple": 1, "mango": 2}
	got := topN(freq, 2)
	want := []string{"mango", "apple"}
	if len(got) != len(want) {
		t.Fatalf("topN = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topN[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
