package deception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiGenerator calls the Gemini generateContent REST API.
type GeminiGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiGenerator creates a Gemini-backed Generator. timeout bounds each
// individual API call.
func NewGeminiGenerator(apiKey, model string, timeout time.Duration, logger *zap.Logger) *GeminiGenerator {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiGenerator{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (g *GeminiGenerator) SetBaseURL(url string) {
	g.baseURL = url
}

// Request/response shapes for the generateContent API. Only the fields we
// read are declared.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text. HTTP 429,
// 500, and 503 map to TransientError; every other failure, including the
// per-call timeout, is terminal for the retry loop.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini: no API key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)

	g.logger.Debug("gemini: sending prompt", zap.Int("prompt_chars", len(prompt)))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", &TransientError{Reason: "resource exhausted", Err: httpStatusError(resp.StatusCode)}
	case http.StatusServiceUnavailable:
		return "", &TransientError{Reason: "service unavailable", Err: httpStatusError(resp.StatusCode)}
	case http.StatusInternalServerError:
		return "", &TransientError{Reason: "internal error", Err: httpStatusError(resp.StatusCode)}
	default:
		return "", fmt.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	g.logger.Debug("gemini: response received", zap.Int("response_chars", len(text)))
	return text, nil
}

func httpStatusError(code int) error {
	return fmt.Errorf("HTTP %d", code)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
