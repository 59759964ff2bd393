// Package textgen calls a hosted text-generation model with a templated
// prompt and a declared output schema.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotConfigured  = errors.New("text generation not configured")
	ErrSchemaMismatch = errors.New("generated output does not match schema")
)

// Field is one string field of the expected output.
type Field struct {
	Name        string
	Description string
}

// Prompt is a named template with its variables and output fields.
type Prompt struct {
	Name     string
	Template string
	Vars     map[string]string
	Output   []Field
}

// Render executes the template against Vars.
func (p Prompt) Render() (string, error) {
	tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", p.Name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p.Vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", p.Name, err)
	}
	return buf.String(), nil
}

// Generator produces the prompt's output fields.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (map[string]string, error)
}

// StatusError is a non-2xx answer from the model endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("text generation failed: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type GeminiClient struct {
	APIKey      string
	Model       string
	BaseURL     string
	HTTP        *http.Client
	MaxAttempts int
	Backoff     time.Duration
	Log         *zap.Logger
}

func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration, maxAttempts int, log *zap.Logger) *GeminiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GeminiClient{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{Timeout: timeout},
		MaxAttempts: maxAttempts,
		Backoff:     500 * time.Millisecond,
		Log:         log,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schemaProp struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type responseSchema struct {
	Type       string                `json:"type"`
	Properties map[string]schemaProp `json:"properties"`
	Required   []string              `json:"required"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   *responseSchema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, p Prompt) (map[string]string, error) {
	if c == nil || c.APIKey == "" {
		return nil, ErrNotConfigured
	}
	text, err := p.Render()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(buildRequest(text, p.Output))
	if err != nil {
		return nil, err
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := c.call(ctx, body)
		if err == nil {
			return decodeOutput(out, p.Output)
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		wait := c.Backoff << (attempt - 1)
		c.Log.Warn("text generation attempt failed",
			zap.String("prompt", p.Name), zap.Int("attempt", attempt), zap.Duration("retry_in", wait), zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func buildRequest(text string, fields []Field) generateRequest {
	req := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}
	if len(fields) > 0 {
		schema := &responseSchema{Type: "OBJECT", Properties: map[string]schemaProp{}}
		for _, f := range fields {
			schema.Properties[f.Name] = schemaProp{Type: "STRING", Description: f.Description}
			schema.Required = append(schema.Required, f.Name)
		}
		req.GenerationConfig.ResponseSchema = schema
	}
	return req
}

func (c *GeminiClient) call(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrSchemaMismatch)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func decodeOutput(text string, fields []Field) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	for _, f := range fields {
		if strings.TrimSpace(out[f.Name]) == "" {
			return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, f.Name)
		}
	}
	return out, nil
}
