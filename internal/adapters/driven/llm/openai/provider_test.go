package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return p
}

func completionBody(content string) string {
	resp := chatCompletionResponse{}
	resp.Choices = []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}{{}}
	resp.Choices[0].Message.Content = content
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}

func TestProviderName(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid")
	assert.Equal(t, "openai/"+DefaultModel, p.Name())
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Question: when?")

		_, _ = w.Write([]byte(completionBody("On Tuesdays.")))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	out, err := p.Generate(context.Background(), domain.Prompt{
		Kind:     domain.PromptAnswer,
		Context:  []string{"Deploys happen on Tuesdays."},
		Question: "when?",
	}, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "On Tuesdays.", out)
}

func TestGenerateRateLimitedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateConnectionRefusedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "context length exceeded", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrModelUnavailable)
	assert.NotErrorIs(t, err, domain.ErrContextOverflow, "overflow mapping keys off the error code, not the message")
	assert.ErrorContains(t, err, "context length exceeded")
}

func TestGenerateContextLengthExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "This model's maximum context length is 128000 tokens", "type": "invalid_request_error", "code": "context_length_exceeded"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContextOverflow)
	assert.NotErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorContains(t, err, "no response choices")
}

func TestAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	assert.True(t, p.Available(context.Background()))
}

func TestAvailableFalseWhenDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	p := newTestProvider(t, server.URL)
	assert.False(t, p.Available(context.Background()))
}

func TestAvailableFalseOnBadKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	assert.False(t, p.Available(context.Background()))
}
