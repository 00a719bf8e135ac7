package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if !cfg.ReviewsEnabled() {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY or GOOGLE_PLACE_ID not set, /api/reviews will answer with a configuration error")
	}

	// Connect to object store
	imageRepo, err := repository.NewImageRepository(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object store client")
	}
	log.Info().
		Str("bucket", cfg.Storage.Bucket).
		Str("public_domain", cfg.Storage.PublicDomain).
		Msg("Object store client ready")

	// Initialize services
	wsHub := services.NewWSHub()
	authService := services.NewAuthService(
		services.NewStaticCredentials(cfg.Admin.Email, cfg.Admin.Password),
		cfg.JWT.Secret,
		cfg.JWT.TTL,
	)
	imageService := services.NewImageService(imageRepo, wsHub, cfg.Upload.MaxConcurrent)
	pairService := services.NewPairService(imageRepo)
	reviewsService := services.NewReviewsService(
		&http.Client{Timeout: cfg.Reviews.Timeout},
		cfg.Reviews.BaseURL,
		cfg.Reviews.APIKey,
		cfg.Reviews.PlaceID,
		cfg.Reviews.Timeout,
	)

	loginLimiter := middleware.NewRateLimiter(cfg.Admin.LoginRPS, cfg.Admin.Burst)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go loginLimiter.Run(sweepCtx, time.Minute, 10*time.Minute)

	// Setup router
	r := handlers.NewRouter(handlers.Deps{
		Auth:           authService,
		Images:         imageService,
		Pairs:          pairService,
		Reviews:        reviewsService,
		Hub:            wsHub,
		AllowedOrigin:  cfg.CORS.AllowedOrigin,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		LoginLimiter:   loginLimiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
