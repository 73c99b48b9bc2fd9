package embeddings

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaProvider generates embeddings via the Ollama embeddings API using a
// multimodal embedding model, so text queries and frame images land in the
// same vector space.
type OllamaProvider struct {
	baseURL    string
	model      string
	dim        int
	httpClient *http.Client
}

// NewOllamaProvider creates a provider for the given Ollama endpoint and
// embedding model. dim is the model's output dimensionality; responses with a
// different length are rejected.
func NewOllamaProvider(baseURL, model string, dim int) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dim:        dim,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Dim returns the embedding dimensionality.
func (p *OllamaProvider) Dim() int {
	return p.dim
}

// EmbedText embeds a text string.
func (p *OllamaProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &EncodingError{Input: text, Err: fmt.Errorf("text cannot be empty")}
	}

	payload := map[string]any{
		"model":  p.model,
		"prompt": text,
	}
	vec, err := p.embed(ctx, payload)
	if err != nil {
		return nil, &EncodingError{Input: text, Err: err}
	}
	return vec, nil
}

// EmbedImage embeds the image stored at path.
func (p *OllamaProvider) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &EncodingError{Input: path, Err: err}
	}

	payload := map[string]any{
		"model":  p.model,
		"prompt": "",
		"images": []string{base64.StdEncoding.EncodeToString(data)},
	}
	vec, err := p.embed(ctx, payload)
	if err != nil {
		return nil, &EncodingError{Input: path, Err: err}
	}
	return vec, nil
}

func (p *OllamaProvider) embed(ctx context.Context, payload map[string]any) ([]float32, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	if len(result.Embedding) != p.dim {
		return nil, fmt.Errorf("unexpected embedding dimension: want %d, got %d", p.dim, len(result.Embedding))
	}
	return result.Embedding, nil
}
