package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/handlers"
	"github.com/work-hours/work-hours-sub001/internal/hub"
	"github.com/work-hours/work-hours-sub001/internal/jobs"
	"github.com/work-hours/work-hours-sub001/internal/logger"
	appmw "github.com/work-hours/work-hours-sub001/internal/middleware"
	"github.com/work-hours/work-hours-sub001/internal/oauth"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/sse"
	"github.com/work-hours/work-hours-sub001/internal/storage"
	"github.com/work-hours/work-hours-sub001/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	var store storage.Storage
	if cfg.MinIO.Enabled() {
		m, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize object storage")
		}
		store = m
		log.Info().Str("bucket", cfg.MinIO.Bucket).Msg("export archiving enabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := appmw.NewMetrics(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}
	syncMetrics, err := services.NewSyncMetrics(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register sync metrics")
	}

	events := sse.NewHub()
	go events.Run()
	chatHub := hub.NewHub()
	go chatHub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	teamService := services.NewTeamService(db)
	clientService := services.NewClientService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db)
	timeLogService := services.NewTimeLogService(db)
	approvalService := services.NewApprovalService(db)
	invoiceService := services.NewInvoiceService(db)
	integrationService := services.NewIntegrationService(db, cfg.CredentialsKey)
	syncService := services.NewSyncService(db, projectService, integrationService,
		services.NewSyncClients(cfg.Integrations), syncMetrics, log)
	aiService := services.NewAIService(taskService, projectService, integrationService, cfg.Integrations)
	chatService := services.NewChatService(db)
	notificationService := services.NewNotificationService(db, events, log)
	dashboardService := services.NewDashboardService(db)
	exportService := services.NewExportService(db, store)
	emailService := services.NewEmailService(cfg.SMTP)

	authHandler := handlers.NewAuthHandler(cfg, oauth.Providers(cfg), userService, tokenService, jwtService, integrationService)
	go authHandler.CleanupStates(ctx)

	h := &handlers.Handlers{
		Auth:         authHandler,
		User:         handlers.NewUserHandler(userService),
		Team:         handlers.NewTeamHandler(teamService, userService, emailService, notificationService, cfg.BaseURL),
		Invite:       handlers.NewInviteHandler(teamService, userService, notificationService),
		Client:       handlers.NewClientHandler(clientService),
		Project:      handlers.NewProjectHandler(projectService, syncService),
		Task:         handlers.NewTaskHandler(taskService, aiService, notificationService),
		TimeLog:      handlers.NewTimeLogHandler(timeLogService),
		Approval:     handlers.NewApprovalHandler(approvalService, notificationService),
		Invoice:      handlers.NewInvoiceHandler(invoiceService, clientService, userService, emailService),
		Integration:  handlers.NewIntegrationHandler(integrationService, syncService),
		Conversation: handlers.NewConversationHandler(chatService, chatHub, events, notificationService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		Export:       handlers.NewExportHandler(exportService),
		Events:       handlers.NewSSEHandler(events),
		Socket:       handlers.NewChatSocketHandler(chatHub, chatService, userService, jwtService),
	}

	cron, err := jobs.NewCron(cfg.Cron, log, db, tokenService, invoiceService, notificationService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure scheduled jobs")
	}
	cron.Start()

	app := drift.New()
	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(appmw.RequestID())
	app.Use(middleware.Recovery())
	app.Use(appmw.Tracing(otel.GetTracerProvider()))
	app.Use(appmw.Logger(log))
	app.Use(metrics.Handler())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	app.Get("/metrics", appmw.Endpoint(reg))
	app.Get("/health", func(c *drift.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Pool.Ping(pingCtx); err != nil {
			_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Register(app.Group("/api"), appmw.Auth(jwtService))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	shutdown(log, srv, cron, shutdownTracing)
}

func shutdown(log zerolog.Logger, srv *http.Server, cron *jobs.Cron, tracing telemetry.Shutdown) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cron.Stop(ctx)
	if err := tracing(ctx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
