package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"courtstream/internal/core/services"
	httphandlers "courtstream/internal/handlers/http"
	"courtstream/internal/infrastructure/media"
	"courtstream/internal/infrastructure/middleware"
	"courtstream/internal/infrastructure/monitoring"
	"courtstream/internal/infrastructure/repositories"
	"courtstream/internal/infrastructure/signal"
	"courtstream/pkg/config"
	"courtstream/pkg/logger"
	"courtstream/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration, trying the usual locations
	var cfg *config.Config
	var err error

	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	log.Infow("Starting CourtStream server",
		"address", cfg.Server.Address,
		"redis_enabled", cfg.Redis.Enabled,
	)

	// Tracing
	if cfg.Tracing.Enabled {
		tracingCfg := tracing.DefaultConfig()
		tracingCfg.Enabled = true
		tracingCfg.JaegerURL = cfg.Tracing.JaegerURL
		tracingCfg.SampleRate = cfg.Tracing.SampleRate

		tp, err := tracing.Init(tracingCfg)
		if err != nil {
			log.Warnw("Failed to initialize tracing", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(ctx); err != nil {
					log.Warnw("Failed to shutdown tracing", "error", err)
				}
			}()
			log.Info("Tracing enabled")
		}
	}

	// Repositories (Redis with memory fallback)
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("Failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// The janitor context outlives individual requests and is cancelled on
	// shutdown together with everything else.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	registry := repoFactory.CreateConnectionRegistry()
	roomConfigs := repoFactory.CreateRoomConfigStore()
	captureStore := repoFactory.CreateCaptureStore(appCtx, cfg.Media.CaptureRetention, cfg.Media.CaptureSweepInterval)

	metrics := monitoring.NewPrometheusCollector()

	// Core services
	accessService := services.NewAccessService(roomConfigs, log)
	presenceService := services.NewPresenceService(metrics)
	captureService := services.NewCaptureService(captureStore, log)

	// The websocket server delivers outbound events for the relay, and the
	// relay handles inbound events for the server, so wiring happens in
	// two stages.
	wsServer := signal.NewServer(metrics, signal.Options{
		PingInterval:   cfg.Signal.PingInterval,
		PongTimeout:    cfg.Signal.PongTimeout,
		WriteTimeout:   cfg.Signal.WriteTimeout,
		MaxMessageSize: cfg.Signal.MaxMessageSize,
	}, log)

	relayService := services.NewRelayService(registry, accessService, presenceService, wsServer, metrics, log)
	wsServer.SetRelay(relayService)

	// Media pipeline
	encoder := media.NewFFmpeg(cfg.Media.FFmpegPath, log)
	if err := encoder.CheckAvailable(); err != nil {
		log.Warnw("ffmpeg not available, renders will fail", "path", cfg.Media.FFmpegPath, "error", err)
	}

	renderService := services.NewRenderService(
		captureService,
		encoder,
		relayService,
		metrics,
		cfg.Media.OutputDir,
		cfg.Media.TranscodeTimeout,
		log,
	)

	for _, dir := range []string{filepath.Join(cfg.Media.UploadDir, "iso"), cfg.Media.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalw("Failed to create media directory", "dir", dir, "error", err)
		}
	}

	// HTTP router
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	router.GET("/ws",
		middleware.NewWSConnectLimitMiddleware(cfg),
		gin.WrapF(wsServer.HandleWebSocket),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"connections": wsServer.ConnectionCount(),
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	var authMiddleware gin.HandlerFunc
	if cfg.Auth.Enabled {
		identityService := services.NewIdentityService(cfg.Auth.JWTSecret)
		authMiddleware = middleware.OptionalAuthMiddleware(identityService)
	}

	isoHandler := httphandlers.NewISOHandler(captureService, renderService, metrics, cfg.Media.UploadDir, cfg.Media.OutputDir, log)
	isoHandler.SetupRoutes(router, authMiddleware)

	// Websocket connections are long-lived, so only the header read gets a
	// deadline here; per-message deadlines live in the signal server.
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("CourtStream listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	appCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	} else {
		log.Info("Server stopped")
	}
}
