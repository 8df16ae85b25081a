package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/weave/internal/companion"
	"github.com/MikeSquared-Agency/weave/internal/extractor"
	"github.com/MikeSquared-Agency/weave/internal/hermes"
	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/ratelimit"
	"github.com/MikeSquared-Agency/weave/internal/session"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

// Store is the slice of persistence the handlers need.
type Store interface {
	ListArtifacts(ctx context.Context, userID uuid.UUID) ([]extractor.StoredArtifact, error)
	SaveConversation(ctx context.Context, userID uuid.UUID, t transcript.Transcript, title string) (uuid.UUID, error)
	AppendChatHistory(ctx context.Context, userID uuid.UUID, scrapID *uuid.UUID, messages ...llm.Message) error
	ChatHistory(ctx context.Context, userID uuid.UUID, scrapID *uuid.UUID, limit int) ([]llm.Message, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Thresholds are the default minimum confidences per route.
type Thresholds struct {
	Entity         float64
	Pattern        float64
	Recommendation float64
}

type Deps struct {
	Store      Store
	Extractor  *extractor.Extractor
	Companion  *companion.Companion
	Sessions   session.Resolver
	Limiter    ratelimit.Limiter
	Events     hermes.Emitter
	Logger     *slog.Logger
	CookieName string
	Thresholds Thresholds
	// Health is checked by /health. Nil means always healthy.
	Health Pinger
}

type Server struct {
	router *chi.Mux
	port   int
	http   *http.Server

	store      Store
	extractor  *extractor.Extractor
	companion  *companion.Companion
	sessions   session.Resolver
	limiter    ratelimit.Limiter
	events     hermes.Emitter
	logger     *slog.Logger
	cookieName string
	thresholds Thresholds
	pinger     Pinger
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	events := deps.Events
	if events == nil {
		events = hermes.Discard{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:     router,
		port:       port,
		store:      deps.Store,
		extractor:  deps.Extractor,
		companion:  deps.Companion,
		sessions:   deps.Sessions,
		limiter:    deps.Limiter,
		events:     events,
		logger:     logger,
		cookieName: deps.CookieName,
		thresholds: deps.Thresholds,
		pinger:     deps.Health,
	}

	router.Get("/health", s.health)

	router.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Post("/chat", s.chat)
		r.Post("/detect-patterns", s.detectPatterns)
		r.Post("/extract-entities", s.extractEntities)
		r.Post("/extract-recommendations", s.extractRecommendations)
		r.Post("/save-conversation", s.saveConversation)
	})

	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

const healthTimeout = 2 * time.Second

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
