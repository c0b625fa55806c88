package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama defaults, matching the all-minilm sentence encoder.
const (
	DefaultOllamaURL  = "http://localhost:11434"
	DefaultModel      = "all-minilm:l6-v2"
	DefaultDimensions = 384
	DefaultTimeout    = 30 * time.Second
)

// ErrUnavailable means Ollama could not be reached or lacks the model.
var ErrUnavailable = errors.New("ollama unavailable")

// OllamaConfig configures an OllamaProvider. Empty URL and Model take the
// defaults. Dimensions is the vector length every response must have; zero
// accepts any length.
type OllamaConfig struct {
	URL        string
	Model      string
	Dimensions int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OllamaProvider embeds text with a local Ollama server.
type OllamaProvider struct {
	url   string
	model string
	dims  int
	hc    *http.Client
}

// NewOllamaProvider builds a provider from cfg.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	p := &OllamaProvider{
		url:   strings.TrimRight(cfg.URL, "/"),
		model: cfg.Model,
		dims:  cfg.Dimensions,
		hc:    cfg.HTTPClient,
	}
	if p.url == "" {
		p.url = DefaultOllamaURL
	}
	if p.model == "" {
		p.model = DefaultModel
	}
	if p.hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		p.hc = &http.Client{Timeout: timeout}
	}
	return p
}

// ModelName implements Provider.
func (p *OllamaProvider) ModelName() string { return p.model }

// Dimensions implements Provider.
func (p *OllamaProvider) Dimensions() int { return p.dims }

// Embed implements Provider using /api/embeddings.
func (p *OllamaProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	body := map[string]string{"model": p.model, "prompt": text}
	if err := p.call(ctx, http.MethodPost, "/api/embeddings", body, &resp); err != nil {
		return Embedding{}, err
	}

	switch n := len(resp.Embedding); {
	case n == 0:
		return Embedding{}, fmt.Errorf("ollama returned an empty embedding for model %s", p.model)
	case p.dims > 0 && n != p.dims:
		return Embedding{}, fmt.Errorf("model %s returned %d dimensions, expected %d", p.model, n, p.dims)
	}
	return Embedding{Vector: resp.Embedding}, nil
}

// Check confirms the server answers and has pulled the model.
func (p *OllamaProvider) Check(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := p.call(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == p.model || strings.TrimSuffix(m.Name, ":latest") == p.model {
			return nil
		}
	}
	return fmt.Errorf("%w: model %s not pulled (run: ollama pull %s)", ErrUnavailable, p.model, p.model)
}

// call sends in as JSON (when non-nil) and decodes a 200 reply into out.
// Transport failures wrap ErrUnavailable.
func (p *OllamaProvider) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.url+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ollama %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ollama %s response: %w", path, err)
	}
	return nil
}
