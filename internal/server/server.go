package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"health-rag/internal/config"
	"health-rag/internal/db"
	"health-rag/internal/helper"
	"health-rag/internal/models"
)

const (
	readHeaderTimeout = 5 * time.Second
	historyLimit      = 50

	requestIDHeader = "X-Request-Id"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Querier answers one free-text question. Satisfied by rag.RAG.
type Querier interface {
	Query(ctx context.Context, query string) (*models.PromptResponse, error)
}

// Handlers carries the request-path dependencies. DB is nil when the
// exchange log is disabled.
type Handlers struct {
	RAG Querier
	DB  *bun.DB
}

// Create builds the http.Server. addrOverride, when non-empty, wins over the
// configured host and port.
func Create(cfg *config.HTTPConfig, addrOverride string, h *Handlers) *http.Server {
	return &http.Server{
		Addr:              ListenAddr(cfg, addrOverride),
		Handler:           Router(h),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// ListenAddr returns override when set, otherwise host:port from cfg.
func ListenAddr(cfg *config.HTTPConfig, override string) string {
	if override != "" {
		return override
	}
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Router wires the middleware stack and routes.
func Router(h *Handlers) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		cors.Handler(cors.Options{
			AllowOriginFunc:  func(_ *http.Request, _ string) bool { return true },
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
		requestID,
		requestLogger,
		chiMiddleware.RealIP,
		chiMiddleware.CleanPath,
		chiMiddleware.Heartbeat("/healthz"),
	)

	router.Post("/chat/", h.handleChat)
	if h.DB != nil {
		router.Get("/history", h.handleHistory)
	}
	return router
}

// requestID honours an inbound X-Request-Id header and mints a UUID
// otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id, _ = helper.GenerateUUID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := time.Now().UTC()
		resp := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", requestIDFromContext(r.Context())).
				Dur("duration", time.Since(st)).
				Int("status", resp.Status()).
				Int("response_size", resp.BytesWritten()).
				Msg("HTTP Request Served")
		}()

		next.ServeHTTP(resp, r)
	})
}

// handleChat runs one stateless question/answer cycle. Outcomes mirror the
// frontend contract: an empty prompt and any upstream failure each map to a
// fixed response string, always with HTTP 200.
func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	// A malformed body is treated as an empty prompt.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, models.ChatResponse{Response: models.PromptRequiredMessage})
		return
	}

	resp, err := h.RAG.Query(r.Context(), req.Message)
	if err != nil {
		log.Error().Err(err).Msg("Error answering chat request")
		writeJSON(w, models.ChatResponse{Response: models.UpstreamErrorMessage})
		return
	}

	if h.DB != nil {
		if err := db.StoreExchange(r.Context(), h.DB, resp.Query, resp.Source, resp.Content); err != nil {
			log.Error().Err(err).Msg("Error storing exchange")
		}
	}

	writeJSON(w, models.ChatResponse{Response: resp.Content})
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	exchanges, err := db.RecentExchanges(r.Context(), h.DB, historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("Error loading exchanges")
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, exchanges)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}
