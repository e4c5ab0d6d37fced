package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/subtrans/subtrans/config"
	"github.com/subtrans/subtrans/translate"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Service{
		Port:            8000,
		BackendHost:     "127.0.0.1",
		BackendPort:     1, // nothing listens here
		Model:           "test-model",
		Encoding:        "cl100k_base",
		SafeChunkTokens: 256,
		RequestTimeout:  time.Second,
	}
	return New(cfg, config.DefaultTuning(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func postTranslate(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInfoEndpoint(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Service string `json:"service"`
		Model   string `json:"model"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Service != "subtrans" || body.Model != "test-model" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthEndpointBackendDown(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "degraded" || body["backend"] != "unreachable" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTranslateEndpoint(t *testing.T) {
	s := testServer(t)
	s.optimized = func(ctx context.Context, text, sourceLang, targetLang string, opts translate.Options) (string, error) {
		return "texto traduzido", nil
	}

	rec := postTranslate(t, s, `{"text": "some text", "source_lang": "en", "target_lang": "pt-br"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var body translateResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.TranslatedText != "texto traduzido" || body.OriginalText != "some text" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ProcessingInfo.TranslationMethod != "optimized_chunked" {
		t.Fatalf("method = %q", body.ProcessingInfo.TranslationMethod)
	}
	if body.ProcessingInfo.ModelUsed != "test-model" || body.ProcessingInfo.InputTokens < 1 {
		t.Fatalf("unexpected processing info: %+v", body.ProcessingInfo)
	}
}

func TestTranslateEndpointLegacyMode(t *testing.T) {
	s := testServer(t)
	var legacyCalled bool
	s.legacy = func(ctx context.Context, text, sourceLang, targetLang string, opts translate.Options) (string, error) {
		legacyCalled = true
		return "legacy output", nil
	}

	rec := postTranslate(t, s, `{"text": "some text", "target_lang": "es", "use_optimized": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !legacyCalled {
		t.Fatal("legacy translator not used")
	}

	var body translateResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ProcessingInfo.TranslationMethod != "legacy_whole_document" {
		t.Fatalf("method = %q", body.ProcessingInfo.TranslationMethod)
	}
}

func TestTranslateEndpointDefaultsTargetLang(t *testing.T) {
	s := testServer(t)
	var gotTarget string
	s.optimized = func(ctx context.Context, text, sourceLang, targetLang string, opts translate.Options) (string, error) {
		gotTarget = targetLang
		return text, nil
	}

	rec := postTranslate(t, s, `{"text": "hello there"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotTarget != "pt-br" {
		t.Fatalf("target = %q, want pt-br", gotTarget)
	}
}

func TestTranslateEndpointValidation(t *testing.T) {
	s := testServer(t)

	t.Run("invalid json", func(t *testing.T) {
		rec := postTranslate(t, s, `{nope`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		rec := postTranslate(t, s, `{"target_lang": "pt-br"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestTranslateEndpointAborted(t *testing.T) {
	s := testServer(t)
	s.optimized = func(ctx context.Context, text, sourceLang, targetLang string, opts translate.Options) (string, error) {
		return "", context.Canceled
	}

	rec := postTranslate(t, s, `{"text": "some text"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
