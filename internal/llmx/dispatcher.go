// Package llmx is a thin, provider-agnostic completion dispatcher shared
// by the query layer's LLM-backed intent parser and the reactive
// detector's solution generator. Both need the same "try providers in
// preference order, fall back on failure" shape, so it lives here once
// instead of being duplicated.
//
// Grounded on MrWong99-glyphoxa's pkg/provider/llm/anyllm wrapper around
// github.com/mozilla-ai/any-llm-go; this package keeps the same backend
// construction idiom but narrows the surface to single-shot completion
// (no streaming, no tool calls), which is all the query layer and
// reactive detector need.
package llmx

import (
	"context"
	"fmt"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/resilience"
	"github.com/watchloop/observatory/internal/trace"
)

// Backend names a supported any-llm-go provider.
type Backend string

const (
	BackendAnthropic Backend = "anthropic"
	BackendOpenAI    Backend = "openai"
)

// ProviderConfig describes one entry in a Dispatcher's preference list.
type ProviderConfig struct {
	Backend Backend
	Model   string
	APIKey  string // empty: provider falls back to its standard env var
}

// provider pairs a constructed any-llm-go backend with the model name
// to request completions against.
type provider struct {
	backend anyllm.Provider
	model   string
	name    string
}

// Dispatcher tries each configured provider in order, falling back to
// the next on failure, matching the "preference list with fallback"
// shape spec.md asks for in both the NL query parser and the solution
// generator.
type Dispatcher struct {
	providers []provider
}

// NewDispatcher constructs the backend for each configured provider.
// A provider that fails to construct (e.g. missing SDK client option)
// is skipped rather than failing the whole dispatcher, since a later
// provider in the list may still work.
func NewDispatcher(configs []ProviderConfig) (*Dispatcher, error) {
	d := &Dispatcher{}
	for _, cfg := range configs {
		backend, err := newBackend(cfg)
		if err != nil {
			continue
		}
		d.providers = append(d.providers, provider{backend: backend, model: cfg.Model, name: string(cfg.Backend)})
	}
	if len(d.providers) == 0 {
		return nil, apperrors.New(apperrors.KindFatal, apperrors.CodeLLMUnavailable, "no LLM provider could be constructed")
	}
	return d, nil
}

func newBackend(cfg ProviderConfig) (anyllm.Provider, error) {
	var opts []anyllm.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllm.WithAPIKey(cfg.APIKey))
	}
	switch cfg.Backend {
	case BackendAnthropic:
		return anthropic.New(opts...)
	case BackendOpenAI:
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("llmx: unsupported backend %q", cfg.Backend)
	}
}

// Complete runs a single-shot completion against the first provider
// that succeeds, trying the rest of the preference list on failure.
func (d *Dispatcher) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llmx_complete")
	defer span.End()

	var lastErr error
	for _, p := range d.providers {
		var text string
		retryCfg := resilience.LLMRetryConfig()
		err := resilience.Retry(ctx, retryCfg, func() error {
			t, err := p.complete(ctx, systemPrompt, userPrompt)
			if err != nil {
				return err
			}
			text = t
			return nil
		})
		if err == nil {
			span.SetAttr("provider", p.name)
			return text, nil
		}
		lastErr = err
		trace.Counts().IncRetriesExceeded(ctx, "llmx_complete_"+p.name)
		trace.Logger(ctx).Warn("llm provider failed, trying next", "provider", p.name, "error", err)
	}
	return "", apperrors.Wrap(lastErr, apperrors.KindSurfaced, apperrors.CodeLLMUnavailable, "all LLM providers failed")
}

func (p provider) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []anyllm.Message{}
	if systemPrompt != "" {
		messages = append(messages, anyllm.Message{Role: anyllm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, anyllm.Message{Role: anyllm.RoleUser, Content: userPrompt})

	resp, err := p.backend.Completion(ctx, anyllm.CompletionParams{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindSurfaced, apperrors.CodeLLMInvalidResponse, "empty choices in LLM response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
