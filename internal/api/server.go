// Package api serves the catalog and the filename parser over JSON.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/metrics"
)

// Catalog is the subset of the store the API reads and writes.
type Catalog interface {
	ListActorsWithAliases(ctx context.Context) ([]database.Actor, error)
	AddActor(ctx context.Context, name string) (int64, error)
	AddAlias(ctx context.Context, actorID int64, alias string) error
	LookupNameByID(ctx context.Context, id int64) (string, bool, error)
	ListVideos(ctx context.Context, limit int) ([]database.VideoRecord, error)
	GetVideoByPath(ctx context.Context, filepath string) (*database.VideoRecord, error)
}

// Server implements the API
type Server struct {
	catalog    Catalog
	logger     *logging.Logger
	startTime  time.Time
	httpServer *http.Server
}

// NewServer creates a new API server listening on addr
func NewServer(catalog Catalog, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		catalog:   catalog,
		logger:    logger,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with CORS and API routes
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api/v1", s.apiRouter())
	return r
}

func (s *Server) apiRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", s.HandleHealth)
	r.Post("/parse", s.HandleParse)

	r.Route("/actors", func(r chi.Router) {
		r.Get("/", s.HandleListActors)
		r.Post("/", s.HandleAddActor)
		r.Post("/{id}/aliases", s.HandleAddAlias)
	})

	r.Route("/videos", func(r chi.Router) {
		r.Get("/", s.HandleListVideos)
		r.Get("/lookup", s.HandleLookupVideo)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		var route string
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(r.Method, route, ww.Status(), elapsed)

		s.logger.Debug("api", "Request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("duration", elapsed.String()),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api", "API server starting", logging.F("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
