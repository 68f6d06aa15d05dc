package query

import (
	"context"
	"testing"
)

func TestManagerHandleClassifiesAndBoundsSQL(t *testing.T) {
	m := NewManager(NewSecurityManager())
	parsed, err := m.Handle(context.Background(), "find conversations about golang")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if parsed.Intent != IntentFindConversations {
		t.Errorf("Intent = %v, want %v", parsed.Intent, IntentFindConversations)
	}
	if !containsAny(parsed.SQL, "limit") && !containsAny(parsed.SQL, "LIMIT") {
		t.Errorf("expected Handle to append a LIMIT clause, got %q", parsed.SQL)
	}
}

func TestManagerHandleRejectsSensitiveNaturalQuery(t *testing.T) {
	m := NewManager(NewSecurityManager())
	_, err := m.Handle(context.Background(), "what is the admin password")
	if err == nil {
		t.Fatal("expected sensitive natural-language query to be rejected")
	}
}

func TestOptimizerRecordFeedbackTracksSuccessRate(t *testing.T) {
	o := NewOptimizer()
	o.RecordFeedback(IntentSearchContent, FeedbackGood, 0.9)
	o.RecordFeedback(IntentSearchContent, FeedbackBadResults, 0.4)

	rate := o.SuccessRate(IntentSearchContent)
	if rate != 0.5 {
		t.Errorf("SuccessRate() = %v, want 0.5", rate)
	}
	if got := o.SuccessRate(IntentListSpeakers); got != 0 {
		t.Errorf("SuccessRate() for unrecorded intent = %v, want 0", got)
	}
}
