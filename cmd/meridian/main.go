package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-grc/meridian-grc/internal/app"
	"github.com/meridian-grc/meridian-grc/internal/audit"
	audithttp "github.com/meridian-grc/meridian-grc/internal/audit/http"
	"github.com/meridian-grc/meridian-grc/internal/auth"
	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/evidence"
	"github.com/meridian-grc/meridian-grc/internal/notifications"
	"github.com/meridian-grc/meridian-grc/internal/observability"
	"github.com/meridian-grc/meridian-grc/internal/platform/cache"
	"github.com/meridian-grc/meridian-grc/internal/platform/db"
	"github.com/meridian-grc/meridian-grc/internal/projects"
	"github.com/meridian-grc/meridian-grc/internal/regulations"
	"github.com/meridian-grc/meridian-grc/internal/shared"
	"github.com/meridian-grc/meridian-grc/internal/tasks"
	"github.com/meridian-grc/meridian-grc/internal/users"
	"github.com/meridian-grc/meridian-grc/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = jobClient.Close() }()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	catalog := authz.DefaultCatalog()
	assignmentRepo := authz.NewRepository(dbpool, auditLogger)
	authzService := authz.NewService(catalog, assignmentRepo, logger)
	guard := authz.Middleware{Service: authzService, Logger: logger}
	authzHandler := authz.NewHandler(logger, authzService, metrics, guard)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, assignmentRepo, catalog)
	userHandler := users.NewHandler(logger, userService, guard)

	regulationRepo := regulations.NewRepository(dbpool)
	regulationCache := regulations.NewCache(redisClient, cfg.RegulationCacheTTL)
	regulationService := regulations.NewService(regulationRepo, regulationCache)
	regulationHandler := regulations.NewHandler(logger, regulationService, guard)
	if err := regulationCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("regulation cache listener", slog.Any("error", err))
	}

	projectRepo := projects.NewRepository(dbpool)
	projectService := projects.NewService(projectRepo, auditLogger)
	projectHandler := projects.NewHandler(logger, projectService, guard)

	notifier := notifications.NewService(logger, jobClient, userRepo)

	taskRepo := tasks.NewRepository(dbpool)
	taskService := tasks.NewService(logger, taskRepo, notifier, auditLogger)
	taskHandler := tasks.NewHandler(logger, taskService, guard)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService)

	evidenceRepo := evidence.NewRepository(dbpool)
	evidenceService := evidence.NewService(evidenceRepo, taskRepo, auditLogger)
	evidenceHandler := evidence.NewHandler(logger, evidenceService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		Guard:              guard,
		AuthHandler:        authHandler,
		AuthzHandler:       authzHandler,
		AuditHandler:       auditHandler,
		UsersHandler:       userHandler,
		RegulationsHandler: regulationHandler,
		ProjectsHandler:    projectHandler,
		TasksHandler:       taskHandler,
		EvidenceHandler:    evidenceHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
