// Package contextonly provides the last-resort generation provider. It
// performs no inference: it returns the retrieved context itself so a
// question still gets a useful response when no model backend is up.
package contextonly

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.GenerationProvider = (*Provider)(nil)

// DefaultContextTokens is deliberately generous; the provider only
// echoes text back, it has no real window.
const DefaultContextTokens = 32768

// summaryPrefixChars bounds the fallback summary length.
const summaryPrefixChars = 500

const contextNote = "(Note: No active LLM found. Showing retrieved context directly.)"

// Provider is the always-available tail of the provider chain.
type Provider struct{}

// NewProvider creates the context-only fallback provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name identifies the provider in logs.
func (p *Provider) Name() string {
	return "context-only"
}

// Available always reports true; this provider has no dependencies.
func (p *Provider) Available(_ context.Context) bool {
	return true
}

// MaxContextTokens returns the nominal context window.
func (p *Provider) MaxContextTokens() int {
	return DefaultContextTokens
}

// Generate formats the prompt's context without inference. Answers
// become a bulleted dump of the retrieved passages; summaries become a
// prefix of the document.
func (p *Provider) Generate(_ context.Context, prompt domain.Prompt, _ driven.GenerateOptions) (string, error) {
	if prompt.Kind == domain.PromptSummary {
		text := strings.TrimSpace(strings.Join(prompt.Context, "\n\n"))
		if len(text) > summaryPrefixChars {
			cut := summaryPrefixChars
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			return text[:cut] + "...", nil
		}
		return text, nil
	}

	var sb strings.Builder
	sb.WriteString("**Context Found:**\n")
	for _, entry := range prompt.Context {
		sb.WriteString("\n- ")
		sb.WriteString(strings.TrimSpace(entry))
	}
	sb.WriteString("\n\n")
	sb.WriteString(contextNote)
	return sb.String(), nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
