// Package llamacpp provides a generation provider backed by a local
// llama.cpp server (llama-server) over its HTTP API.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.GenerationProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "http://localhost:8080"
	DefaultTimeout       = 300 * time.Second
	DefaultContextTokens = 8192
)

// Config holds configuration for the llama.cpp provider.
type Config struct {
	// BaseURL is the llama-server address (default: http://localhost:8080).
	BaseURL string

	// ModelPath is the GGUF model file the server is expected to serve.
	// When set, Available also checks the file exists on disk.
	ModelPath string

	// ContextTokens is the model's context window size (default: 8192).
	ContextTokens int

	// Timeout is the request timeout (default: 300s). Local inference on
	// CPU can be slow.
	Timeout time.Duration
}

// Provider generates answers through a local llama.cpp server.
type Provider struct {
	client        *http.Client
	baseURL       string
	modelPath     string
	contextTokens int
}

// completionRequest is the llama.cpp /completion request format.
type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// completionResponse is the llama.cpp /completion response format.
type completionResponse struct {
	Content string `json:"content"`
}

// NewProvider creates a new llama.cpp provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ContextTokens == 0 {
		cfg.ContextTokens = DefaultContextTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:       cfg.BaseURL,
		modelPath:     cfg.ModelPath,
		contextTokens: cfg.ContextTokens,
	}
}

// Name identifies the provider in logs.
func (p *Provider) Name() string {
	return "llamacpp"
}

// Available reports whether the local model can serve a request: the
// model file must exist when configured, and the server must answer its
// health endpoint.
func (p *Provider) Available(ctx context.Context) bool {
	if p.modelPath != "" {
		if _, err := os.Stat(p.modelPath); err != nil {
			return false
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.baseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// MaxContextTokens returns the model's context window size.
func (p *Provider) MaxContextTokens() int {
	return p.contextTokens
}

// Generate produces a completion for the rendered prompt.
func (p *Provider) Generate(ctx context.Context, prompt domain.Prompt, opts driven.GenerateOptions) (string, error) {
	reqBody := completionRequest{
		Prompt: prompt.Render(),
	}
	if opts.MaxTokens > 0 {
		reqBody.NPredict = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = opts.Temperature
	}
	if len(opts.StopWords) > 0 {
		reqBody.Stop = opts.StopWords
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/completion",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llamacpp: %w: %v", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("llamacpp error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("llamacpp error (status %d): %s", resp.StatusCode, string(body))
	}

	var compResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&compResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return compResp.Content, nil
}

// Close releases resources.
func (p *Provider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
