// Package gemini is a hand-rolled HTTP client for the Gemini REST API with
// ordered credential failover: one request per key, advance on retryable
// failures, stop on anything else.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

var ErrNoCredentials = errors.New("no gemini api keys configured")

type Config struct {
	APIKeys         []string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string
	EmbedTimeout    time.Duration
	GenTimeout      time.Duration
	Temperature     float64
	MaxOutputTokens int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	// Rotation cursor for generation calls. A repeated key under
	// concurrent access is harmless, but the counter itself must not race.
	cursor atomic.Uint64
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "models/gemini-embedding-001"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "models/gemini-2.5-flash"
	}
	if cfg.EmbedTimeout == 0 {
		cfg.EmbedTimeout = 25 * time.Second
	}
	if cfg.GenTimeout == 0 {
		cfg.GenTimeout = 20 * time.Second
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1024
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     slog.Default().With("component", "gemini"),
	}
}

/* ---------------- wire types ---------------- */

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Contents []content `json:"contents"`
}

type embedResponse struct {
	Embedding *struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// apiError carries the provider status code for retryability decisions.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gemini api error (status %d): %s", e.status, e.body)
}

// Retryable reports whether a credential failure should advance to the next
// key: transport errors, rate limiting, and server-side errors do; anything
// else (e.g. a malformed request) stops the loop immediately.
func Retryable(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	// No HTTP response at all.
	return true
}

/* ---------------- public API ---------------- */

// EmbedContent returns the embedding vector for text, trying each
// configured key in order.
func (c *Client) EmbedContent(ctx context.Context, text string) ([]float32, error) {
	if len(c.cfg.APIKeys) == 0 {
		return nil, ErrNoCredentials
	}

	var lastErr error
	for i, key := range c.cfg.APIKeys {
		vector, err := c.embedOnce(ctx, key, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !Retryable(err) {
			c.logger.Warn("embedding failed with non-retryable error", "key_index", i, "error", err)
			break
		}
		c.logger.Warn("embedding attempt failed, trying next key", "key_index", i, "error", err)
	}

	return nil, fmt.Errorf("all embedding credentials exhausted: %w", lastErr)
}

// GenerateContent produces text for the prompt. Key order rotates per call
// so load spreads across credentials; within one call the remaining keys
// are tried in order on retryable failures.
func (c *Client) GenerateContent(ctx context.Context, prompt, systemRules string) (string, error) {
	if len(c.cfg.APIKeys) == 0 {
		return "", ErrNoCredentials
	}

	start := int(c.cursor.Add(1)-1) % len(c.cfg.APIKeys)

	var lastErr error
	for i := 0; i < len(c.cfg.APIKeys); i++ {
		key := c.cfg.APIKeys[(start+i)%len(c.cfg.APIKeys)]

		text, err := c.generateOnce(ctx, key, prompt, systemRules)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !Retryable(err) {
			c.logger.Warn("generation failed with non-retryable error", "attempt", i+1, "error", err)
			break
		}
		c.logger.Warn("generation attempt failed, trying next key", "attempt", i+1, "error", err)
	}

	return "", fmt.Errorf("all generation credentials exhausted: %w", lastErr)
}

/* ---------------- single-key requests ---------------- */

func (c *Client) embedOnce(ctx context.Context, key, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.EmbedTimeout)
	defer cancel()

	reqBody := embedRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: text}}}},
	}

	var resp embedResponse
	url := fmt.Sprintf("%s/v1beta/%s:embedContent?key=%s", c.cfg.BaseURL, c.cfg.EmbeddingModel, key)
	if err := c.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}

	switch {
	case resp.Embedding != nil && len(resp.Embedding.Values) > 0:
		return resp.Embedding.Values, nil
	case len(resp.Embeddings) > 0 && len(resp.Embeddings[0].Values) > 0:
		return resp.Embeddings[0].Values, nil
	default:
		return nil, &apiError{status: http.StatusBadGateway, body: "response carries no embedding values"}
	}
}

func (c *Client) generateOnce(ctx context.Context, key, prompt, systemRules string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GenTimeout)
	defer cancel()

	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}
	if systemRules != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemRules}}}
	}

	var resp generateResponse
	url := fmt.Sprintf("%s/v1beta/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.GenerationModel, key)
	if err := c.post(ctx, url, reqBody, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &apiError{status: http.StatusBadGateway, body: "response carries no candidate text"}
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, reqBody, out interface{}) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &apiError{status: resp.StatusCode, body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
