package main

import (
	"context"
	"encoding/json"

	"github.com/watchloop/observatory/internal/query"
	"github.com/watchloop/observatory/internal/rpc"
	"github.com/watchloop/observatory/internal/storage"
)

// queryToolParams mirrors spec.md §6's "tools/call maps to a Query
// Layer invocation": a natural-language string plus an optional
// session id. The session id is accepted but not passed to the Manager.
type queryToolParams struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

func registerTools(server *rpc.Server, store *storage.Store, manager *query.Manager) {
	server.RegisterTool(rpc.Tool{
		Name:        "query",
		Description: "Ask a natural-language question over recorded conversations, speakers, and activity",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":       map[string]any{"type": "string"},
				"session_id": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
	}, queryToolHandler(store, manager))
}

func queryToolHandler(store *storage.Store, manager *query.Manager) rpc.ToolHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p queryToolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		parsed, err := manager.Handle(ctx, p.Text)
		if err != nil {
			return nil, err
		}

		rows, err := manager.Execute(ctx, store.DB(), parsed)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"intent":     parsed.Intent,
			"confidence": parsed.Confidence,
			"rows":       rows,
		}, nil
	}
}
