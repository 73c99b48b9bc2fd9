package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func embeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model  string   `json:"model"`
			Prompt string   `json:"prompt"`
			Images []string `json:"images"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		embedding := make([]float32, dim)
		embedding[0] = 1
		json.NewEncoder(w).Encode(map[string]any{"embedding": embedding})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedText(t *testing.T) {
	srv := embeddingServer(t, 4)
	p := NewOllamaProvider(srv.URL, "test-model", 4)

	vec, err := p.EmbedText(context.Background(), "a person on stage")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("vector length = %d, want 4", len(vec))
	}
}

func TestEmbedTextRejectsEmpty(t *testing.T) {
	p := NewOllamaProvider("http://localhost:1", "test-model", 4)
	for _, q := range []string{"", "   "} {
		if _, err := p.EmbedText(context.Background(), q); err == nil {
			t.Errorf("EmbedText(%q) succeeded, want error", q)
		}
	}
}

func TestEmbedTextDimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, 8)
	p := NewOllamaProvider(srv.URL, "test-model", 4)

	if _, err := p.EmbedText(context.Background(), "query"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestEmbedTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p := NewOllamaProvider(srv.URL, "test-model", 4)
	_, err := p.EmbedText(context.Background(), "query")
	if err == nil {
		t.Fatal("expected error from failing server")
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Errorf("error type = %T, want *EncodingError", err)
	}
}

func TestEmbedImage(t *testing.T) {
	srv := embeddingServer(t, 4)
	p := NewOllamaProvider(srv.URL, "test-model", 4)

	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte("fake jpeg bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	vec, err := p.EmbedImage(context.Background(), path)
	if err != nil {
		t.Fatalf("EmbedImage failed: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("vector length = %d, want 4", len(vec))
	}
}

func TestEmbedImageMissingFile(t *testing.T) {
	p := NewOllamaProvider("http://localhost:1", "test-model", 4)
	if _, err := p.EmbedImage(context.Background(), "/nonexistent/frame.jpg"); err == nil {
		t.Error("expected error for missing image file")
	}
}

func TestDim(t *testing.T) {
	if got := NewOllamaProvider("", "m", 512).Dim(); got != 512 {
		t.Errorf("Dim = %d, want 512", got)
	}
}
