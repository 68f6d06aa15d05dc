package query

import (
	"context"
	"database/sql"

	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/trace"
)

// intentParser is satisfied by both PatternParser and LLMParser so
// Manager can be built with or without an LLM dispatcher.
type intentParser interface {
	Parse(ctx context.Context, text string) ParsedQuery
}

// patternOnlyParser adapts PatternParser to intentParser's context-taking
// signature without pretending the pattern matcher does anything
// context-sensitive.
type patternOnlyParser struct{ p *PatternParser }

func (a patternOnlyParser) Parse(_ context.Context, text string) ParsedQuery { return a.p.Parse(text) }

// Manager is the query layer's entry point: it classifies a
// natural-language request, validates both the request text and the SQL
// the classifier produced, and hands back a ready-to-execute ParsedQuery.
type Manager struct {
	parser    intentParser
	security  *SecurityManager
	optimizer *Optimizer
}

// NewManager builds a Manager using pattern-only classification.
func NewManager(security *SecurityManager) *Manager {
	return &Manager{
		parser:    patternOnlyParser{p: NewPatternParser()},
		security:  security,
		optimizer: NewOptimizer(),
	}
}

// NewManagerWithLLM builds a Manager whose classifier prefers an LLM and
// falls back to pattern matching.
func NewManagerWithLLM(security *SecurityManager, dispatcher *llmx.Dispatcher) *Manager {
	return &Manager{
		parser:    NewLLMParser(dispatcher),
		security:  security,
		optimizer: NewOptimizer(),
	}
}

// Optimizer exposes the feedback tracker so callers can record outcomes
// after executing a query.
func (m *Manager) Optimizer() *Optimizer { return m.optimizer }

// Handle classifies text, validates both the request and the resulting
// SQL, and returns a ParsedQuery whose SQL is guaranteed to carry a
// LIMIT clause within the security manager's bound. Any validation
// failure returns a surfaced *apperrors.AppError and a zero ParsedQuery;
// the caller must not execute the SQL in that case.
func (m *Manager) Handle(ctx context.Context, text string) (ParsedQuery, error) {
	ctx, span := trace.StartSpan(ctx, "query_handle")
	defer span.End()

	sanitized, err := m.security.ValidateNaturalQuery(text)
	if err != nil {
		return ParsedQuery{}, err
	}

	parsed := m.parser.Parse(ctx, sanitized)
	if err := m.security.ValidateSQLQuery(parsed.SQL); err != nil {
		return ParsedQuery{}, err
	}
	parsed.SQL = m.security.EnsureQueryLimit(parsed.SQL)

	span.SetAttr("intent", string(parsed.Intent))
	span.SetAttr("confidence", parsed.Confidence)
	return parsed, nil
}

// Execute runs a validated ParsedQuery's SQL against db and decodes
// every row into a column-name-keyed map, the same dynamic "whatever
// columns the generated SELECT projects" shape the original MCP
// server's resource/tool handlers hand back as a bare JSON value
// rather than a fixed struct (original_source/crates/savant-db/src/
// mcp_server.rs), since the SQL a ParsedQuery carries varies by intent
// and has no single static row type.
func (m *Manager) Execute(ctx context.Context, db *sql.DB, parsed ParsedQuery) ([]map[string]any, error) {
	ctx, span := trace.StartSpan(ctx, "query_execute")
	defer span.End()

	rows, err := db.QueryContext(ctx, parsed.SQL, parsed.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := raw[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = raw[i]
			}
		}
		out = append(out, row)
	}
	span.SetAttr("row_count", len(out))
	return out, rows.Err()
}
