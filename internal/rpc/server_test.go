package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func runRequests(t *testing.T, s *Server, lines []string) []Response {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer

	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []Response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestServerInitializeMintsSession(t *testing.T) {
	s := NewServer("observatory", "0.1.0")
	responses := runRequests(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"initialize"}`})
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("unexpected error: %+v", responses[0].Error)
	}
}

func TestServerUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := NewServer("observatory", "0.1.0")
	responses := runRequests(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"not/a/method"}`})
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("Error = %+v, want code %d", responses[0].Error, ErrCodeMethodNotFound)
	}
}

func TestServerToolsCallDispatchesRegisteredHandler(t *testing.T) {
	s := NewServer("observatory", "0.1.0")
	s.RegisterTool(Tool{Name: "echo"}, func(ctx context.Context, params json.RawMessage) (any, error) {
		var args struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(params, &args)
		return map[string]string{"echoed": args.Text}, nil
	})

	responses := runRequests(t, s, []string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`,
	})
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("unexpected response: %+v", responses[0])
	}

	resultBytes, _ := json.Marshal(responses[0].Result)
	var result ToolCallResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("unmarshal ToolCallResult: %v", err)
	}
	if len(result.Content) != 1 || !strings.Contains(result.Content[0].Text, "hi") {
		t.Errorf("Content = %+v, want a block containing %q", result.Content, "hi")
	}
}

func TestServerToolsListReportsRegisteredTools(t *testing.T) {
	s := NewServer("observatory", "0.1.0")
	s.RegisterTool(Tool{Name: "query"}, func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, nil
	})

	responses := runRequests(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`})
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("unexpected response: %+v", responses[0])
	}
}
