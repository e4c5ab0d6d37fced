// Package server exposes the translation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/subtrans/subtrans/chunk"
	"github.com/subtrans/subtrans/config"
	"github.com/subtrans/subtrans/translate"
)

// Version is the service version reported by the info endpoint.
const Version = "1.0.0"

// backendPause is the breathing room left for the backend between
// successive chunk calls.
const backendPause = 500 * time.Millisecond

// Translator runs a translation request; it is the seam the tests use to
// swap in a fake backend.
type Translator func(ctx context.Context, text, sourceLang, targetLang string, opts translate.Options) (string, error)

type Server struct {
	router *chi.Mux
	cfg    config.Service
	tuning config.Tuning
	log    *slog.Logger

	optimized Translator
	legacy    Translator
}

func New(cfg config.Service, tuning config.Tuning, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		cfg:       cfg,
		tuning:    tuning,
		log:       log,
		optimized: translate.Translate,
		legacy:    translate.TranslateLegacy,
	}

	router.Get("/", s.info)
	router.Get("/health", s.health)
	router.Post("/translate", s.translate)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("server starting", "addr", addr, "model", s.cfg.Model, "backend", s.cfg.BackendURL())
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// options builds the per-request translate options, wiring log output to
// the request-scoped logger.
func (s *Server) options(log *slog.Logger) translate.Options {
	return translate.Options{
		Provider:     translate.OllamaProvider(s.cfg.BackendURL(), s.cfg.Model, s.cfg.RequestTimeout),
		Tuning:       s.tuning,
		Encoding:     s.cfg.Encoding,
		TokenBudget:  s.cfg.SafeChunkTokens,
		RequestDelay: backendPause,
		OnLog: func(format string, args ...any) {
			log.Info(fmt.Sprintf(format, args...))
		},
		OnError: func(format string, args ...any) {
			log.Warn(fmt.Sprintf(format, args...))
		},
	}
}

// ---------------------------------------------------------------------------
// Request / response shapes
// ---------------------------------------------------------------------------

type translateRequest struct {
	Text         string `json:"text"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
	UseOptimized *bool  `json:"use_optimized"`
}

type processingInfo struct {
	ModelUsed             string  `json:"model_used"`
	TranslationMethod     string  `json:"translation_method"`
	InputTokens           int     `json:"input_tokens"`
	OutputTokens          int     `json:"output_tokens"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ModelMaxTokens        int     `json:"model_max_tokens"`
}

type translateResponse struct {
	OriginalText   string         `json:"original_text"`
	TranslatedText string         `json:"translated_text"`
	SourceLang     string         `json:"source_lang"`
	TargetLang     string         `json:"target_lang"`
	ProcessingInfo processingInfo `json:"processing_info"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "subtrans",
		"version": Version,
		"model":   s.cfg.Model,
		"backend": s.cfg.BackendURL(),
		"endpoints": map[string]string{
			"POST /translate": "translate plain text or a subtitle document",
			"GET /health":     "service and backend health",
		},
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	backend := "reachable"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BackendURL()+"/api/tags", nil)
	if err == nil {
		resp, err := http.DefaultClient.Do(req)
		if err != nil || resp.StatusCode != http.StatusOK {
			status = "degraded"
			backend = "unreachable"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"backend": backend,
		"model":   s.cfg.Model,
	})
}

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.TargetLang == "" {
		req.TargetLang = "pt-br"
	}

	useOptimized := req.UseOptimized == nil || *req.UseOptimized
	method := "optimized_chunked"
	run := s.optimized
	if !useOptimized {
		method = "legacy_whole_document"
		run = s.legacy
	}

	log.Info("translation requested",
		"source", req.SourceLang, "target", req.TargetLang,
		"chars", len(req.Text), "method", method)

	start := time.Now()
	translated, err := run(r.Context(), req.Text, req.SourceLang, req.TargetLang, s.options(log))
	elapsed := time.Since(start)

	if err != nil {
		// Pipeline errors are context cancellations; everything else
		// degrades inside the pipeline.
		log.Warn("translation aborted", "error", err)
		writeError(w, http.StatusServiceUnavailable, "translation aborted")
		return
	}

	log.Info("translation complete", "seconds", elapsed.Seconds())

	writeJSON(w, http.StatusOK, translateResponse{
		OriginalText:   req.Text,
		TranslatedText: translated,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		ProcessingInfo: processingInfo{
			ModelUsed:             s.cfg.Model,
			TranslationMethod:     method,
			InputTokens:           chunk.Estimate(req.Text, s.cfg.Encoding),
			OutputTokens:          chunk.Estimate(translated, s.cfg.Encoding),
			ProcessingTimeSeconds: elapsed.Seconds(),
			ModelMaxTokens:        s.tuning.MaxTokens,
		},
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
