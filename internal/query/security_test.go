package query

import (
	"strings"
	"testing"

	"github.com/watchloop/observatory/internal/apperrors"
)

func TestValidateSQLQueryAcceptsBoundedSelect(t *testing.T) {
	s := NewSecurityManager()
	err := s.ValidateSQLQuery("SELECT * FROM conversations WHERE speaker = 'john' LIMIT 10")
	if err != nil {
		t.Fatalf("expected bounded select to be accepted, got %v", err)
	}
}

func TestValidateSQLQueryRejectsNonSelect(t *testing.T) {
	s := NewSecurityManager()
	err := s.ValidateSQLQuery("DROP TABLE conversations")
	if !apperrors.IsCode(err, apperrors.CodeNonSelectOperation) {
		t.Fatalf("expected CodeNonSelectOperation, got %v", err)
	}
}

func TestValidateSQLQueryRejectsUnauthorizedTable(t *testing.T) {
	s := NewSecurityManager()
	err := s.ValidateSQLQuery("SELECT * FROM unauthorized_table")
	if !apperrors.IsCode(err, apperrors.CodeUnauthorizedTable) {
		t.Fatalf("expected CodeUnauthorizedTable, got %v", err)
	}
}

func TestValidateSQLQueryRejectsExcessiveLimit(t *testing.T) {
	s := NewReadOnlySecurityManager()
	err := s.ValidateSQLQuery("SELECT * FROM conversations LIMIT 500")
	if !apperrors.IsCode(err, apperrors.CodeExcessiveLimit) {
		t.Fatalf("expected CodeExcessiveLimit, got %v", err)
	}
}

func TestValidateSQLQueryRejectsJoinsInReadOnlyMode(t *testing.T) {
	s := NewReadOnlySecurityManager()
	err := s.ValidateSQLQuery("SELECT * FROM conversations JOIN segments ON conversations.id = segments.conversation_id")
	if err == nil {
		t.Fatal("expected joins to be rejected in read-only mode")
	}
}

func TestValidateSQLQueryIsIdempotent(t *testing.T) {
	s := NewSecurityManager()
	query := "SELECT * FROM conversations WHERE speaker = 'john' LIMIT 10"

	first := s.ValidateSQLQuery(query)
	second := s.ValidateSQLQuery(query)
	if (first == nil) != (second == nil) {
		t.Fatalf("validation was not idempotent: first=%v second=%v", first, second)
	}
}

func TestValidateNaturalQueryBoundaryLength(t *testing.T) {
	s := NewSecurityManager()

	atMax := strings.Repeat("a", maxNaturalQueryLength)
	if _, err := s.ValidateNaturalQuery(atMax); err != nil {
		t.Errorf("query of exactly max length should be accepted, got %v", err)
	}

	overMax := atMax + "a"
	if _, err := s.ValidateNaturalQuery(overMax); !apperrors.IsCode(err, apperrors.CodeQueryTooLong) {
		t.Errorf("query one over max length should be rejected with CodeQueryTooLong, got %v", err)
	}
}

func TestValidateNaturalQueryRejectsSensitiveContent(t *testing.T) {
	s := NewSecurityManager()
	if _, err := s.ValidateNaturalQuery("what is my password"); err == nil {
		t.Error("expected query referencing sensitive content to be rejected")
	}
}

func TestValidateNaturalQueryRejectsDisallowedCharacters(t *testing.T) {
	s := NewSecurityManager()
	if _, err := s.ValidateNaturalQuery("find conversations; DROP TABLE x;@#"); !apperrors.IsCode(err, apperrors.CodeQueryInvalidChars) {
		t.Errorf("expected CodeQueryInvalidChars, got %v", err)
	}
}

func TestEnsureQueryLimitAppendsWhenMissing(t *testing.T) {
	s := NewSecurityManager()
	got := s.EnsureQueryLimit("SELECT * FROM conversations")
	if !strings.Contains(got, "LIMIT 1000") {
		t.Errorf("EnsureQueryLimit() = %q, want a LIMIT 1000 clause appended", got)
	}
}

func TestEnsureQueryLimitLeavesExistingLimitAlone(t *testing.T) {
	s := NewSecurityManager()
	got := s.EnsureQueryLimit("SELECT * FROM conversations LIMIT 5")
	if got != "SELECT * FROM conversations LIMIT 5" {
		t.Errorf("EnsureQueryLimit() = %q, want unchanged query", got)
	}
}
