package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/watchloop/observatory/internal/trace"
)

// ToolHandler executes one tools/call invocation and returns the value
// to serialize into the response's content block.
type ToolHandler func(ctx context.Context, params json.RawMessage) (any, error)

// ResourceReader fetches the content and MIME type of one registered
// resource for resources/read.
type ResourceReader func(ctx context.Context, uri string) (content []byte, mimeType string, err error)

// PromptGetter renders one registered prompt with the given arguments
// for prompts/get.
type PromptGetter func(ctx context.Context, name string, args map[string]string) (string, error)

// session tracks per-connection state: each Serve call mints one,
// initialize reports its id, and every tools/call against it increments
// queryCount.
type session struct {
	mu         sync.Mutex
	id         string
	queryCount int
}

func (s *session) incrementQueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCount++
	return s.queryCount
}

// Server dispatches JSON-RPC requests to registered tools, resources,
// and prompts. One Server can back multiple concurrent Serve calls,
// each with its own session.
type Server struct {
	name    string
	version string

	mu        sync.RWMutex
	resources []Resource
	readRes   ResourceReader
	tools     []Tool
	handlers  map[string]ToolHandler
	prompts   []Prompt
	getPrompt PromptGetter
}

// NewServer builds an empty Server identified by name/version in its
// initialize response.
func NewServer(name, version string) *Server {
	return &Server{
		name:     name,
		version:  version,
		handlers: make(map[string]ToolHandler),
	}
}

// RegisterTool adds a tool to tools/list and wires its handler for
// tools/call.
func (s *Server) RegisterTool(tool Tool, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = handler
}

// RegisterResource adds a resource to resources/list. SetResourceReader
// must be called once for resources/read to work.
func (s *Server) RegisterResource(resource Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, resource)
}

// SetResourceReader wires the function resources/read delegates to.
func (s *Server) SetResourceReader(reader ResourceReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readRes = reader
}

// RegisterPrompt adds a prompt to prompts/list. SetPromptGetter must be
// called once for prompts/get to work.
func (s *Server) RegisterPrompt(prompt Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
}

// SetPromptGetter wires the function prompts/get delegates to.
func (s *Server) SetPromptGetter(getter PromptGetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getPrompt = getter
}

// Serve runs one newline-framed JSON-RPC session over r/w until r is
// exhausted or ctx is cancelled. Each line is dispatched in its own
// goroutine so a slow tools/call (an in-flight LLM request, say) never
// blocks the next request's response; a write mutex keeps frames from
// interleaving on the wire.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sess := &session{id: uuid.New().String()}

	var writeMu sync.Mutex
	writeResponse := func(resp Response) {
		data, err := json.Marshal(resp)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n"))
	}

	var wg sync.WaitGroup
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := append([]byte(nil), line...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			writeResponse(s.dispatch(ctx, sess, lineCopy))
		}()

		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}
	}
	wg.Wait()
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, sess *session, line []byte) Response {
	ctx, span := trace.StartSpan(ctx, "rpc_dispatch")
	defer span.End()

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(nil, ErrCodeInternal, fmt.Sprintf("malformed request: %v", err))
	}
	span.SetAttr("method", req.Method)

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, InitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      ServerInfo{Name: s.name, Version: s.version},
			Capabilities: map[string]any{
				"resources": map[string]any{},
				"tools":     map[string]any{},
				"prompts":   map[string]any{},
			},
			SessionID: sess.id,
		})
	case "resources/list":
		s.mu.RLock()
		resources := append([]Resource(nil), s.resources...)
		s.mu.RUnlock()
		return resultResponse(req.ID, map[string]any{"resources": resources})
	case "resources/read":
		return s.handleResourcesRead(ctx, req)
	case "tools/list":
		s.mu.RLock()
		tools := append([]Tool(nil), s.tools...)
		s.mu.RUnlock()
		return resultResponse(req.ID, map[string]any{"tools": tools})
	case "tools/call":
		sess.incrementQueryCount()
		return s.handleToolsCall(ctx, req)
	case "prompts/list":
		s.mu.RLock()
		prompts := append([]Prompt(nil), s.prompts...)
		s.mu.RUnlock()
		return resultResponse(req.ID, map[string]any{"prompts": prompts})
	case "prompts/get":
		return s.handlePromptsGet(ctx, req)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, req Request) Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing or invalid uri")
	}

	s.mu.RLock()
	reader := s.readRes
	s.mu.RUnlock()
	if reader == nil {
		return errorResponse(req.ID, ErrCodeInternal, "no resource reader configured")
	}

	content, mimeType, err := reader(ctx, params.URI)
	if err != nil {
		return errorResponse(req.ID, ErrCodeInternal, err.Error())
	}
	return resultResponse(req.ID, map[string]any{
		"contents": []map[string]any{{
			"uri":      params.URI,
			"mimeType": mimeType,
			"text":     string(content),
		}},
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing or invalid tool name")
	}

	s.mu.RLock()
	handler, ok := s.handlers[params.Name]
	s.mu.RUnlock()
	if !ok {
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("unknown tool %q", params.Name))
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		return resultResponse(req.ID, ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}

	text, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return errorResponse(req.ID, ErrCodeInternal, marshalErr.Error())
	}
	return resultResponse(req.ID, ToolCallResult{Content: []ContentBlock{{Type: "text", Text: string(text)}}})
}

func (s *Server) handlePromptsGet(ctx context.Context, req Request) Response {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing or invalid prompt name")
	}

	s.mu.RLock()
	getter := s.getPrompt
	s.mu.RUnlock()
	if getter == nil {
		return errorResponse(req.ID, ErrCodeInternal, "no prompt getter configured")
	}

	text, err := getter(ctx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, ErrCodeInternal, err.Error())
	}
	return resultResponse(req.ID, map[string]any{
		"description": "",
		"messages": []map[string]any{{
			"role":    "user",
			"content": map[string]string{"type": "text", "text": text},
		}},
	})
}
