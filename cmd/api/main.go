package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/medverify/internal/application"
	compsvc "github.com/bryanwahyu/medverify/internal/application/compliance"
	hallsvc "github.com/bryanwahyu/medverify/internal/application/hallucination"
	"github.com/bryanwahyu/medverify/internal/application/pipeline"
	"github.com/bryanwahyu/medverify/internal/application/verifier"
	"github.com/bryanwahyu/medverify/internal/config"
	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/reports"
	aiopenai "github.com/bryanwahyu/medverify/internal/infra/ai/openai"
	"github.com/bryanwahyu/medverify/internal/infra/cache/memory"
	mysqlp "github.com/bryanwahyu/medverify/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medverify/internal/infra/db/postgres"
	"github.com/bryanwahyu/medverify/internal/infra/httpserver"
	"github.com/bryanwahyu/medverify/internal/infra/phi"
	"github.com/bryanwahyu/medverify/internal/infra/resolvers/doi"
	"github.com/bryanwahyu/medverify/internal/infra/resolvers/pubmed"
	"github.com/bryanwahyu/medverify/internal/infra/resolvers/websearch"
	minioStore "github.com/bryanwahyu/medverify/internal/infra/storage"
	"github.com/bryanwahyu/medverify/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	healthChecks := map[string]middleware.HealthChecker{}

	// primary store: mysql when configured, in-memory otherwise
	var repo reports.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Error("mysql connect error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = mysqlp.NewReportRepository(db)
		healthChecks["mysql"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	default:
		logger.Warn("no database driver configured, records are in-memory only")
		repo = memory.NewRepository()
	}

	// optional postgres archive
	var archive reports.Archive
	if cfg.Archive.Enabled {
		adb, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Error("postgres connect error", "error", err)
			os.Exit(1)
		}
		defer adb.Close()
		archive = postgresp.NewArchiveRepository(adb)
		healthChecks["postgres"] = func(ctx context.Context) error { return adb.PingContext(ctx) }
	}

	// optional minio report export
	var artifacts reports.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Error("minio init error", "error", err)
			os.Exit(1)
		}
		artifacts = store
	}

	// judge is optional: without an API key the deterministic checks carry the run
	var j judge.Judge
	if cfg.Judge.APIKey != "" {
		j = aiopenai.NewClient(cfg.Judge.APIKey, cfg.Judge.Model)
	} else {
		logger.Warn("no judge API key configured, running deterministic checks only")
	}

	verifierSvc := verifier.New(
		pubmed.New(cfg.Resolvers.PubMed.BaseURL, cfg.Resolvers.PubMed.APIKey),
		doi.New(cfg.Resolvers.DOI.BaseURL),
		websearch.New(cfg.Resolvers.WebSearch.BaseURL, cfg.Resolvers.WebSearch.APIKey, cfg.Resolvers.WebSearch.EngineID),
		logger,
	)

	clock := application.SystemClock{}
	pipe := pipeline.New(pipeline.Params{
		Repo:          repo,
		Archive:       archive,
		Artifacts:     artifacts,
		Extractor:     citations.NewExtractor(),
		Verifier:      verifierSvc,
		Hallucination: hallsvc.New(j, clock, logger),
		Compliance:    compsvc.New(phi.NewDetector(), j, clock, logger),
		Clock:         clock,
		Logger:        logger,
		MaxConcurrent: int64(cfg.Pipeline.MaxConcurrent),
		RunTimeout:    time.Duration(cfg.Pipeline.RunTimeoutSeconds) * time.Second,
	})
	defer pipe.Close()

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	if cfg.Auth.RateLimit.Capacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.Auth.RateLimit.Capacity, cfg.Auth.RateLimit.RefillRate))
	}
	mux.Mount("/", httpserver.NewRouter(pipe, middleware.HealthHandler(healthChecks)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
