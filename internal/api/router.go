// Package api serves a catalog over HTTP: expansion listings, instant packs,
// pull history and a websocket that plays pack reveals live.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/history"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/reveal"
	"github.com/arcanaland/boosterpack/internal/session"
)

var ErrNoHistory = errors.New("history is disabled")

// Config holds the server dependencies. Catalog and Generator are required.
type Config struct {
	Catalog   *catalog.Catalog
	Generator *pack.Generator
	// History is optional; without it packs are not recorded.
	History *history.Store
	Timings reveal.Timings
	// Clock drives websocket reveals. Nil uses the real clock.
	Clock          reveal.Clock
	AllowedOrigins []string
	Logger         *zerolog.Logger
}

// Server holds the HTTP server dependencies
type Server struct {
	cfg      Config
	log      zerolog.Logger
	router   chi.Router
	upgrader websocket.Upgrader
	pools    map[string]pack.Pools
}

// New creates a new API server
func New(cfg Config) *Server {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:    cfg,
		log:    log.With().Str("component", "api").Logger(),
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pools: make(map[string]pack.Pools),
	}
	s.upgrader.CheckOrigin = s.checkOrigin
	for _, exp := range cfg.Catalog.Openable() {
		s.pools[exp.ID] = pack.Partition(exp.Cards)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// checkOrigin applies AllowedOrigins to websocket upgrades. Clients that
// send no Origin header are not browsers and are let through.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	s.log.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Websocket upgrades need the raw writer.
		r.Get("/expansions/{id}/open", s.handleOpenSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			r.Get("/catalog", s.handleGetCatalog)
			r.Get("/expansions", s.handleGetExpansions)
			r.Get("/expansions/{id}", s.handleGetExpansion)
			r.Post("/expansions/{id}/packs", s.handleCreatePack)

			r.Get("/history", s.handleGetHistory)
			r.Get("/history/counts", s.handleGetCounts)
		})
	})

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) newController(exp catalog.Expansion, observer reveal.Observer, opts session.Options) *session.Controller {
	seq := reveal.NewSequencer(s.cfg.Timings, s.cfg.Clock, observer)
	opts.Expansion = exp.ID
	opts.Logger = &s.log
	opts.NewID = uuid.NewString
	return session.New(s.pools[exp.ID], s.cfg.Generator, seq, opts)
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrExpansionNotFound):
		return http.StatusNotFound
	case errors.Is(err, pack.ErrEmptyCatalog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reveal.ErrSequenceActive):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, ErrNoHistory):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
