package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func geminiReplyBody(text string) string {
	body := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func newTestGeminiClient(t *testing.T, baseURL, maxRetries string) GeminiClient {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", baseURL)
	t.Setenv("GEMINI_MAX_RETRIES", maxRetries)

	client, err := NewGeminiClient(testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestGeminiGenerateText_HappyPath(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiReplyBody(`{"topics": ["a"]}`)))
	}))
	defer srv.Close()

	client := newTestGeminiClient(t, srv.URL, "0")
	text, err := client.GenerateText(context.Background(), "list topics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"topics": ["a"]}` {
		t.Fatalf("unexpected text: %q", text)
	}
	if !strings.HasSuffix(gotPath, ":generateContent") {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "list topics" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestGeminiGenerateText_RetriesOn503(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(geminiReplyBody("recovered")))
	}))
	defer srv.Close()

	client := newTestGeminiClient(t, srv.URL, "2")
	text, err := client.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Fatalf("unexpected text: %q", text)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGeminiGenerateText_NonRetryableStatusFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad prompt"}}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(t, srv.URL, "3")
	if _, err := client.GenerateText(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected no retries for 400, got %d calls", calls)
	}
}

func TestGeminiGenerateText_QuotaErrDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(t, srv.URL, "0")
	_, err := client.GenerateText(context.Background(), "hello")
	if !IsQuotaErr(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestGeminiGenerateText_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(t, srv.URL, "0")
	_, err := client.GenerateText(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "no text candidates") {
		t.Fatalf("expected no-candidates error, got %v", err)
	}
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewGeminiClient(testLogger()); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestIsQuotaErr_NonHTTPError(t *testing.T) {
	if IsQuotaErr(context.Canceled) {
		t.Fatalf("expected false for non-http error")
	}
}
