package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completion", r.URL.Path)

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "Question: when?")
		assert.Equal(t, 64, req.NPredict)

		require.NoError(t, json.NewEncoder(w).Encode(completionResponse{Content: "On Tuesdays."}))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL})
	out, err := p.Generate(context.Background(), domain.Prompt{
		Kind:     domain.PromptAnswer,
		Context:  []string{"Deploys happen on Tuesdays."},
		Question: "when?",
	}, driven.GenerateOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "On Tuesdays.", out)
}

func TestGenerateConnectionRefusedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	p := NewProvider(Config{BaseURL: server.URL})
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "loading model", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL})
	_, err := p.Generate(context.Background(), domain.Prompt{}, driven.GenerateOptions{})
	assert.ErrorContains(t, err, "status 503")
}

func TestAvailableChecksHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL})
	assert.True(t, p.Available(context.Background()))

	healthy = false
	assert.False(t, p.Available(context.Background()))
}

func TestAvailableChecksModelFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()

	missing := NewProvider(Config{BaseURL: server.URL, ModelPath: "/nonexistent/model.gguf"})
	assert.False(t, missing.Available(context.Background()))

	path := filepath.Join(t.TempDir(), "model.gguf")
	require.NoError(t, os.WriteFile(path, []byte("gguf"), 0600))
	present := NewProvider(Config{BaseURL: server.URL, ModelPath: path})
	assert.True(t, present.Available(context.Background()))
}

func TestDefaults(t *testing.T) {
	p := NewProvider(Config{})
	assert.Equal(t, "llamacpp", p.Name())
	assert.Equal(t, DefaultContextTokens, p.MaxContextTokens())
}
