package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamcoop/dichotomous/internal/logger"
	"github.com/liamcoop/dichotomous/rules"
)

// maxBodyBytes caps request bodies; key and object files are small text
const maxBodyBytes = 4 << 20

type Server struct {
	db       *sql.DB
	engine   *rules.Engine
	registry *prometheus.Registry
	metrics  *metrics
	router   *chi.Mux
}

// NewServer connects to Postgres and serves the keys stored there
func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewServerWithStore(rules.NewPostgresKeyStore(db), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewServerWithStore builds a server over store. db is only used for health
// checks and may be nil.
func NewServerWithStore(store rules.KeyStore, db *sql.DB) (*Server, error) {
	cache, err := rules.NewLRUKeyCache(rules.DefaultLRUSize)
	if err != nil {
		return nil, err
	}

	logger.Info("loading keys from store")
	engine, err := rules.NewEngineWithCache(store, cache)
	if err != nil {
		return nil, err
	}

	keys, err := engine.ListKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	logger.Info("keys loaded", "count", len(keys))

	registry := prometheus.NewRegistry()
	s := &Server{
		db:       db,
		engine:   engine,
		registry: registry,
		metrics:  newMetrics(registry),
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.metrics.instrument)

	r.Get("/api/v1/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/keys", func(r chi.Router) {
		r.Get("/", s.handleListKeys)
		r.Post("/", s.handleCreateKey)

		r.Route("/{keyId}", func(r chi.Router) {
			r.Get("/", s.handleGetKey)
			r.Put("/", s.handleUpdateKey)
			r.Delete("/", s.handleDeleteKey)
			r.Post("/evaluate", s.handleEvaluate)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the database connection, if any
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func main() {
	_ = godotenv.Load()

	var (
		server *Server
		err    error
	)
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		server, err = NewServer(databaseURL)
	} else {
		logger.Warn("DATABASE_URL not set, keys are kept in memory")
		server, err = NewServerWithStore(rules.NewInMemoryKeyStore(), nil)
	}
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	defer server.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
}
