package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var trendOutput = []Field{
	{Name: "summary", Description: "trend summary"},
	{Name: "pricingSuggestions", Description: "pricing advice"},
}

func testPrompt() Prompt {
	return Prompt{
		Name:     "trends",
		Template: "Analyze: {{.data}}",
		Vars:     map[string]string{"data": `[{"serviceName":"Cut"}]`},
		Output:   trendOutput,
	}
}

func geminiReply(t *testing.T, w http.ResponseWriter, fields map[string]string) {
	t.Helper()
	inner, _ := json.Marshal(fields)
	resp := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]string{"text": string(inner)}},
				},
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func newTestClient(url string) *GeminiClient {
	c := NewGeminiClient("key", "test-model", url, time.Second, 3, nil)
	c.Backoff = time.Millisecond
	return c
}

func TestPromptRender(t *testing.T) {
	out, err := testPrompt().Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != `Analyze: [{"serviceName":"Cut"}]` {
		t.Fatalf("unexpected prompt %q", out)
	}

	p := testPrompt()
	p.Vars = nil
	if _, err := p.Render(); err == nil {
		t.Fatalf("expected missing variable error")
	}
}

func TestGenerate_SendsSchemaAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		schema := req.GenerationConfig.ResponseSchema
		if schema == nil || len(schema.Required) != 2 || schema.Properties["summary"].Type != "STRING" {
			t.Errorf("unexpected schema %+v", schema)
		}
		if !strings.Contains(req.Contents[0].Parts[0].Text, "serviceName") {
			t.Errorf("prompt not rendered into request")
		}
		geminiReply(t, w, map[string]string{"summary": "Nails lead.", "pricingSuggestions": "Raise manicure by 5%."})
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Generate(context.Background(), testPrompt())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out["summary"] != "Nails lead." || out["pricingSuggestions"] != "Raise manicure by 5%." {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		geminiReply(t, w, map[string]string{"summary": "ok", "pricingSuggestions": "ok"})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Generate(context.Background(), testPrompt()); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestGenerate_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), testPrompt())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestGenerate_MissingFieldIsSchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, map[string]string{"summary": "only this"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), testPrompt())
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	c := NewGeminiClient("", "m", "http://unused", 0, 1, nil)
	if _, err := c.Generate(context.Background(), testPrompt()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
