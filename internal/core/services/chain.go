package services

import (
	"context"
	"fmt"
	"time"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
	"github.com/corpora-labs/corpora/internal/logger"
)

// charsPerToken is the rough character-to-token estimate used when
// fitting context into a provider's window.
const charsPerToken = 4

// promptReserveTokens is held back from each provider's window for
// instructions, the question, and the generated answer.
const promptReserveTokens = 512

// DefaultGenerateTokens caps answer length.
const DefaultGenerateTokens = 512

// ProviderChain tries generation providers in priority order and falls
// through on unavailability or failure. Availability is evaluated per
// request, never cached, so a recovered backend is picked up on the
// next request.
type ProviderChain struct {
	providers []driven.GenerationProvider
	timeout   time.Duration
}

// NewProviderChain creates a chain over the given providers, first is
// highest priority. An empty chain is a configuration error: the last
// provider is expected to be the context-only fallback, which is always
// available.
func NewProviderChain(timeout time.Duration, providers ...driven.GenerationProvider) (*ProviderChain, error) {
	if len(providers) == 0 {
		return nil, domain.ErrNoProvider
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ProviderChain{providers: providers, timeout: timeout}, nil
}

// Generate runs the prompt through the first usable provider. The
// prompt's context is truncated to each candidate's window before the
// attempt, dropping lowest-relevance entries first. Provider failures
// are logged and the chain proceeds; only caller cancellation or full
// chain exhaustion surface as errors.
func (c *ProviderChain) Generate(ctx context.Context, prompt domain.Prompt, opts driven.GenerateOptions) (string, error) {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultGenerateTokens
	}

	for _, p := range c.providers {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !p.Available(ctx) {
			logger.Info("Provider %s unavailable, trying next", p.Name())
			continue
		}

		fitted := prompt
		fitted.Context = fitContext(prompt.Context, p.MaxContextTokens())

		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		answer, err := p.Generate(pctx, fitted, opts)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Warn("Provider %s failed: %v, trying next", p.Name(), err)
			continue
		}

		logger.Debug("Provider %s produced %d bytes", p.Name(), len(answer))
		return answer, nil
	}

	return "", fmt.Errorf("all providers exhausted: %w", domain.ErrNoProvider)
}

// Providers returns the configured provider names in priority order.
func (c *ProviderChain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Close releases all providers.
func (c *ProviderChain) Close() error {
	var firstErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fitContext keeps the highest-relevance context entries that fit in
// the token window, preserving order. Entries are assumed sorted by
// relevance already. A single oversized entry is cut to the budget
// rather than dropped so the prompt is never empty.
func fitContext(entries []string, windowTokens int) []string {
	if windowTokens <= 0 {
		return entries
	}
	budget := (windowTokens - promptReserveTokens) * charsPerToken
	if budget <= 0 {
		budget = windowTokens * charsPerToken / 2
	}

	var kept []string
	used := 0
	for _, e := range entries {
		if used+len(e) > budget {
			if len(kept) == 0 {
				kept = append(kept, truncate(e, budget))
			}
			break
		}
		kept = append(kept, e)
		used += len(e)
	}
	return kept
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}
