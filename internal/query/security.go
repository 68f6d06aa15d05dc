package query

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/watchloop/observatory/internal/apperrors"
)

const maxNaturalQueryLength = 1000

// defaultAllowedTables mirrors the teacher database's schema: the tables
// a natural-language query is ever allowed to touch.
var defaultAllowedTables = []string{
	"conversations",
	"segments",
	"speakers",
	"speaker_relationships",
	"segments_fts",
	"query_history",
}

var sensitiveTokens = []string{
	"password", "secret", "key", "token", "auth",
	"credit card", "ssn", "social security",
	"personal", "private", "confidential",
}

// dangerousPatterns rejects SQL that smells like anything other than a
// single bounded SELECT. Grounded on
// original_source/crates/savant-db/src/security.rs's dangerous_patterns
// regex set; expressed with the standard library since no SQL-parsing
// library appears anywhere in the example corpus (confirmed by grep
// across every vendored go.mod) — a hand-rolled AST parser would be a
// much larger, less faithful stand-in than these pattern checks.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(drop|delete|update|insert|create|alter|truncate)\b`),
	regexp.MustCompile(`(?i)\b(exec|execute|sp_|xp_)\b`),
	regexp.MustCompile(`(?i)\b(union|intersect|except)\b`),
	regexp.MustCompile(`(?i)\b(declare|cursor|while|if)\b`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*`),
	regexp.MustCompile(`;`),
}

var fromTablePattern = regexp.MustCompile(`(?i)\bfrom\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
var joinTablePattern = regexp.MustCompile(`(?i)\bjoin\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
var joinKeywordPattern = regexp.MustCompile(`(?i)\bjoin\b`)
var limitPattern = regexp.MustCompile(`(?i)\blimit\s+(\d+)`)
var selectPattern = regexp.MustCompile(`(?i)^\s*select\b`)

// SecurityManager validates natural-language queries and the SQL
// generated from them before either ever reaches the database. It is
// the only component allowed to reject a query on security grounds;
// the Optimizer's feedback never feeds back into these decisions.
type SecurityManager struct {
	AllowedTables  map[string]struct{}
	MaxResultLimit int
	AllowJoins     bool
	ReadOnly       bool
}

// NewSecurityManager returns the default-mode validator: the full table
// allow-list, a result cap of 1000, and joins permitted.
func NewSecurityManager() *SecurityManager {
	return newSecurityManager(defaultAllowedTables, 1000, true, false)
}

// NewReadOnlySecurityManager returns the tightened validator a read-only
// session uses: a lower result cap, joins disabled.
func NewReadOnlySecurityManager() *SecurityManager {
	return newSecurityManager(defaultAllowedTables, 100, false, true)
}

func newSecurityManager(tables []string, limit int, allowJoins, readOnly bool) *SecurityManager {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return &SecurityManager{
		AllowedTables:  set,
		MaxResultLimit: limit,
		AllowJoins:     allowJoins,
		ReadOnly:       readOnly,
	}
}

// ValidateNaturalQuery checks length, character set, and sensitive
// content, returning a sanitized (whitespace-collapsed, trimmed) copy of
// the query on success.
func (s *SecurityManager) ValidateNaturalQuery(query string) (string, error) {
	if len(query) > maxNaturalQueryLength {
		return "", apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeQueryTooLong,
			"query length %d exceeds maximum %d", len(query), maxNaturalQueryLength)
	}
	for _, r := range query {
		if !isAllowedQueryRune(r) {
			return "", apperrors.New(apperrors.KindSurfaced, apperrors.CodeQueryInvalidChars,
				"query contains disallowed characters")
		}
	}

	lower := strings.ToLower(query)
	for _, token := range sensitiveTokens {
		if strings.Contains(lower, token) {
			return "", apperrors.New(apperrors.KindSurfaced, apperrors.CodeQueryRejected,
				"query references sensitive content")
		}
	}

	return sanitizeNaturalQuery(query), nil
}

func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(` .,?!-_()[]{}"'`, r)
}

func sanitizeNaturalQuery(query string) string {
	fields := strings.Fields(query)
	return strings.Join(fields, " ")
}

// ValidateSQLQuery rejects anything but a single bounded SELECT against
// an allowed table, matching validate_sql_query/validate_select_query
// in the teacher database's Rust original.
func (s *SecurityManager) ValidateSQLQuery(sql string) error {
	if !selectPattern.MatchString(sql) {
		return apperrors.New(apperrors.KindSurfaced, apperrors.CodeNonSelectOperation,
			"only SELECT statements are permitted")
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(sql) {
			return apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeQueryRejected,
				"query matches a disallowed pattern: %s", pattern.String())
		}
	}

	if !s.AllowJoins && joinKeywordPattern.MatchString(sql) {
		return apperrors.New(apperrors.KindSurfaced, apperrors.CodeQueryRejected,
			"joins are not permitted in read-only mode")
	}

	for _, match := range fromTablePattern.FindAllStringSubmatch(sql, -1) {
		if err := s.checkTableAllowed(match[1]); err != nil {
			return err
		}
	}
	for _, match := range joinTablePattern.FindAllStringSubmatch(sql, -1) {
		if err := s.checkTableAllowed(match[1]); err != nil {
			return err
		}
	}

	if match := limitPattern.FindStringSubmatch(sql); match != nil {
		limit, err := strconv.Atoi(match[1])
		if err == nil && limit > s.MaxResultLimit {
			return apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeExcessiveLimit,
				"requested limit %d exceeds maximum %d", limit, s.MaxResultLimit)
		}
	}

	return nil
}

func (s *SecurityManager) checkTableAllowed(table string) error {
	if _, ok := s.AllowedTables[strings.ToLower(table)]; !ok {
		return apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeUnauthorizedTable,
			"table %q is not in the allowed set", table)
	}
	return nil
}

// EnsureQueryLimit appends a LIMIT clause capped at MaxResultLimit if the
// query doesn't already carry one, mirroring ensure_query_limit.
func (s *SecurityManager) EnsureQueryLimit(sql string) string {
	if strings.Contains(strings.ToUpper(sql), "LIMIT") {
		return sql
	}
	return sql + " LIMIT " + strconv.Itoa(s.MaxResultLimit)
}
