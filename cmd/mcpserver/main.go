// Command mcpserver hosts the observatory's JSON-RPC surface (§6): a
// newline-framed JSON-RPC 2.0 server speaking initialize/resources/
// tools/prompts over stdio, so an external LLM client can query stored
// activity the same way a human would through savctl, without shelling
// out. Grounded on teradata-labs-loom's cmd/loom-mcp/main.go (stdio
// transport, logging routed exclusively to stderr so it never collides
// with the JSON-RPC framing on stdout) and internal/rpc.Server, which
// implements the wire contract itself.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/query"
	"github.com/watchloop/observatory/internal/rpc"
	"github.com/watchloop/observatory/internal/storage"
)

const serverName = "observatory-mcp"
const serverVersion = "0.1.0"

func main() {
	dbPath := flag.String("db-path", "", "database file path (defaults to the configured storage path)")
	readOnly := flag.Bool("read-only", false, "use the tightened read-only security profile")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg := config.Load()
	path := *dbPath
	if path == "" {
		path = cfg.Storage.DatabasePath
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, path)
	if err != nil {
		sugar.Errorw("open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	security := query.NewSecurityManager()
	if *readOnly {
		security = query.NewReadOnlySecurityManager()
	}
	manager := buildQueryManager(security)

	server := rpc.NewServer(serverName, serverVersion)
	registerTools(server, store, manager)
	registerResources(server, store)
	registerPrompts(server, store)

	sugar.Infow("observatory-mcp starting", "db_path", path, "read_only", *readOnly)
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		sugar.Errorw("serve", "error", err)
		os.Exit(1)
	}
	sugar.Infow("observatory-mcp stopped")
}

func buildQueryManager(security *query.SecurityManager) *query.Manager {
	cfg := config.Load()
	var configs []llmx.ProviderConfig
	for _, name := range cfg.Query.LLMProviders {
		switch name {
		case "anthropic":
			configs = append(configs, llmx.ProviderConfig{Backend: llmx.BackendAnthropic})
		case "openai":
			configs = append(configs, llmx.ProviderConfig{Backend: llmx.BackendOpenAI})
		}
	}
	if len(configs) == 0 {
		return query.NewManager(security)
	}
	dispatcher, err := llmx.NewDispatcher(configs)
	if err != nil {
		return query.NewManager(security)
	}
	return query.NewManagerWithLLM(security, dispatcher)
}

// newLogger mirrors internal/cliutil.NewLogger's console-to-stderr setup,
// duplicated here rather than imported: cliutil is built for the
// --format text|json CLI envelope, while this process never writes a
// human/JSON envelope of its own to stdout — stdout is reserved entirely
// for JSON-RPC frames.
func newLogger(debugEnabled bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	if debugEnabled {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
