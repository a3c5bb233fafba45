package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/haeli05/yields.to/internal/aggregator"
	"github.com/haeli05/yields.to/internal/api/handlers"
	"github.com/haeli05/yields.to/internal/api/middleware"
	"github.com/haeli05/yields.to/internal/config"
	"github.com/haeli05/yields.to/internal/health"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources/chateau"
	"github.com/haeli05/yields.to/internal/sources/defillama"
	"github.com/haeli05/yields.to/internal/sources/pendle"
	"github.com/haeli05/yields.to/internal/sources/stablewatch"
	"github.com/haeli05/yields.to/internal/sources/sumcap"
)

// Dependencies все, що потрібно серверу
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Job          *aggregator.Job
	Probe        *health.Probe
	SumcapClient *sumcap.Client

	DefiLlama   *defillama.Adapter
	Pendle      *pendle.Adapter
	Chateau     *chateau.Adapter
	Stablewatch *stablewatch.Scraper

	Snapshots repository.SnapshotRepository
	Sumcap    repository.SumcapRepository
	Projects  repository.ProjectRepository
}

// Server HTTP сервер агрегатора
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *mux.Router
	logger     *logger.Logger

	aggregateHandler *handlers.AggregateHandler
	sumcapHandler    *handlers.SumcapHandler
	sourcesHandler   *handlers.SourcesHandler
	yieldsHandler    *handlers.YieldsHandler
	projectHandler   *handlers.ProjectHandler
	healthHandler    *handlers.HealthHandler
}

// NewServer створює новий server
func NewServer(deps Dependencies) *Server {
	s := &Server{
		config: deps.Config,
		logger: deps.Logger.WithPrefix("SERVER"),
	}

	secret := deps.Config.Aggregator.Secret

	s.aggregateHandler = handlers.NewAggregateHandler(deps.Job, secret, deps.Logger)
	s.sumcapHandler = handlers.NewSumcapHandler(deps.SumcapClient, deps.Sumcap, secret, deps.Logger)
	s.sourcesHandler = handlers.NewSourcesHandler(deps.Probe, deps.Stablewatch, deps.Logger)
	s.yieldsHandler = handlers.NewYieldsHandler(deps.DefiLlama, deps.Pendle, deps.Chateau, deps.Snapshots, deps.Logger)
	s.projectHandler = handlers.NewProjectHandler(deps.Projects, deps.Logger)
	s.healthHandler = handlers.NewHealthHandler()

	s.setupRouter()

	return s
}

// setupRouter налаштовує всі роути та middleware
func (s *Server) setupRouter() {
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.CORSMiddleware(s.config.App.AllowedOrigins))

	// Синк (захищено shared secret)
	r.HandleFunc("/aggregate/sync", s.aggregateHandler.Sync).Methods("GET")
	r.HandleFunc("/sumcap/sync", s.sumcapHandler.Sync).Methods("GET")

	// Джерела
	r.HandleFunc("/sources/health", s.sourcesHandler.Health).Methods("GET")
	r.HandleFunc("/sources/stablewatch", s.sourcesHandler.Stablewatch).Methods("GET")

	// Read-шляхи
	r.HandleFunc("/yields/plasma", s.yieldsHandler.Plasma).Methods("GET")
	r.HandleFunc("/yields/pendle", s.yieldsHandler.Pendle).Methods("GET")
	r.HandleFunc("/yields/chateau", s.yieldsHandler.Chateau).Methods("GET")
	r.HandleFunc("/chain-metrics", s.sumcapHandler.ChainMetrics).Methods("GET")

	// Заявки
	r.HandleFunc("/submit-project", s.projectHandler.Submit).Methods("POST")

	// Службові
	r.HandleFunc("/health", s.healthHandler.Health).Methods("GET")
	r.HandleFunc("/ping", s.healthHandler.Ping).Methods("GET")

	s.router = r
}

// Start запускає HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.App.Host, s.config.App.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // синк-шляхи обходять всі upstream
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("🚀 Сервер запускається на %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop зупиняє HTTP сервер gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("🛑 Зупинка сервера...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("✅ Сервер зупинено")
	return nil
}

// Router повертає router для тестування
func (s *Server) Router() *mux.Router {
	return s.router
}
