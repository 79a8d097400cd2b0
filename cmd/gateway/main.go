package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/services"
	httphandlers "veristream/internal/handlers/http"
	"veristream/internal/infrastructure/middleware"
	"veristream/internal/infrastructure/monitoring"
	"veristream/internal/infrastructure/registry"
	"veristream/internal/infrastructure/signal"
	"veristream/pkg/config"
	"veristream/pkg/logger"
	"veristream/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessProbeFrame decodes to 26 bytes, enough for the scorer to
// treat it as analyzable content.
const readinessProbeFrame = "QUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVo="

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/veristream/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize monitoring
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	collector := monitoring.NewPrometheusCollector(promRegistry)

	// Shared room state
	roomRegistry := registry.NewMemoryRoomRegistry(cfg.Rooms.MaxParticipants, collector, log)

	// Detection pipeline
	scorer := services.NewHeuristicScorer(cfg.Detection.ReplayWindow)
	smoother := services.NewSmootherService(cfg.Detection.SourceIdleTimeout, log)

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go smoother.RunJanitor(janitorCtx, cfg.Detection.JanitorInterval)

	// WebSocket servers
	wsOpts := signal.Options{
		PingInterval:       cfg.WebSocket.PingInterval,
		PongTimeout:        cfg.WebSocket.PongTimeout,
		ReadTimeout:        cfg.WebSocket.ReadTimeout,
		WriteTimeout:       cfg.WebSocket.WriteTimeout,
		MaxMessageSize:     cfg.WebSocket.MaxMessageSizeBytes,
		OutboundBufferSize: cfg.WebSocket.OutboundBufferSize,
	}
	conferenceServer := signal.NewConferenceServer(roomRegistry, collector, log, wsOpts)
	analysisServer := signal.NewAnalysisServer(scorer, smoother, collector, log, wsOpts)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware(log))

	// WebSocket endpoints stay outside the rate-limited group.
	router.GET("/conference", gin.WrapF(conferenceServer.HandleWebSocket))
	router.GET("/ws", gin.WrapF(analysisServer.HandleWebSocket))

	// REST surface
	api := router.Group("/api")
	api.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	httphandlers.NewRoomHandler(roomRegistry, scorer).SetupRoutes(api)
	httphandlers.NewDetectHandler(scorer).SetupRoutes(api)

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
		log.Info("Prometheus metrics enabled")
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Readiness: prove the scorer can classify a probe payload and the
	// room registry answers queries.
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("scorer", func(ctx context.Context) error {
		_, err := scorer.Score(ctx, domain.FramePayload{
			Data:   readinessProbeFrame,
			Source: domain.DefaultSource,
		})
		return err
	}, 2*time.Second)
	healthChecker.AddCheck("rooms", func(ctx context.Context) error {
		roomRegistry.RoomInfo(ctx, "readiness-probe")
		return nil
	}, 2*time.Second)

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "healthy" {
			code = 503
		}
		c.JSON(code, status)
	})

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting VeriStream gateway on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down VeriStream gateway...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	janitorCancel()

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Error shutting down tracer", "error", err)
		}
	}

	log.Info("VeriStream gateway stopped")
}
