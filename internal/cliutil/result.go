// Package cliutil is the shared result-envelope and logger setup both
// CLI binaries (captured, savctl) use, so each subcommand's success/
// error reporting and output framing stays consistent rather than
// being written out longhand in every command file. Grounded on the
// teacher's server.go JSON-encoding idiom
// (json.NewEncoder(w).Encode(map[string]string{...})), generalized
// from one fixed shape to a typed success/error/data envelope per
// spec §6/§7's "{success, error, suggestions?}" contract.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Format selects how a command renders its result.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Result is the JSON envelope emitted on stdout when --format json is
// set. Data is only set on success and Error only on failure; a success
// with nil data carries neither.
type Result struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Data        any      `json:"data,omitempty"`
}

// PrintSuccess writes a successful Result to w. In text mode it falls
// back to a plain fmt.Fprintf of textFallback instead of dumping JSON,
// matching spec.md §6's "stdout carries JSON only when --format json".
func PrintSuccess(w io.Writer, format Format, data any, textFallback string, args ...any) error {
	if format == FormatJSON {
		return json.NewEncoder(w).Encode(Result{Success: true, Data: data})
	}
	_, err := fmt.Fprintf(w, textFallback+"\n", args...)
	return err
}

// PrintError writes a failed Result. In text mode the message goes to
// stderr as a plain line; in JSON mode the same envelope still goes to
// stdout per spec.md §7, since a JSON consumer expects one framing for
// both success and failure.
func PrintError(stdout, stderr io.Writer, format Format, err error, suggestions ...string) {
	if format == FormatJSON {
		_ = json.NewEncoder(stdout).Encode(Result{Success: false, Error: err.Error(), Suggestions: suggestions})
		return
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
}

// NewLogger builds the CLI-boundary structured logger: human-readable
// to stderr so it never collides with --format json's stdout framing,
// matching loom-mcp's "never write to stdout, that's the transport"
// convention carried over from MCP stdio servers to every CLI entry
// point here.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
