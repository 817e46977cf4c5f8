package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"logoanimator/internal/adapter/repo"
	"logoanimator/internal/domain"
	"logoanimator/internal/http/handlers"
	httpapi "logoanimator/internal/http/httpapi"
	"logoanimator/internal/infra"
	"logoanimator/internal/infra/credentials"
	"logoanimator/internal/infra/geoip"
	"logoanimator/internal/middleware"
	"logoanimator/internal/providers/genai"
	"logoanimator/internal/providers/image"
	"logoanimator/internal/providers/video"
	"logoanimator/internal/sqlinline"
	"logoanimator/internal/storage"
	"logoanimator/internal/studio"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Job history and the stored API key need PostgreSQL; both are optional.
	var (
		recorder domain.JobRecorder
		history  domain.JobHistory
		keyStore *credentials.Store
	)
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		jobs := repo.NewJobRepository(runner)
		recorder, history = jobs, jobs
		keyStore = credentials.NewStore(runner)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; job history disabled")
	}

	apiKey, err := credentials.ResolveGeminiAPIKey(ctx, cfg.GeminiAPIKey, keyStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve gemini api key")
	}
	service, err := genai.NewService(ctx, cfg.GenAIBackend, genai.Options{
		APIKey:         apiKey,
		BaseURL:        cfg.GeminiBaseURL,
		ImageModel:     cfg.ImageModel,
		VideoModel:     cfg.VideoModel,
		Logger:         &logger,
		SyntheticPolls: cfg.SyntheticPolls,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.GenAIBackend).Msg("failed to build genai backend")
	}

	media, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare media storage")
	}

	registry := studio.NewRegistry(ctx, studio.Options{
		Images:           image.NewGeminiGenerator(service),
		Animator:         video.NewGeminiAnimator(service),
		Media:            media,
		Recorder:         recorder,
		Backend:          service.Name(),
		Logger:           &logger,
		PollInterval:     cfg.PollInterval,
		ProgressInterval: cfg.ProgressInterval,
		VideoTimeout:     cfg.VideoTimeout,
		MaxPollAttempts:  cfg.MaxPollAttempts,
		ShareAppURL:      cfg.ShareAppURL,
	}, cfg.SessionIdleTTL)
	go registry.Run(ctx, sweepInterval)

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	app := &handlers.App{
		Sessions:       registry,
		Jobs:           history,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   middleware.CountryLookup(resolver.Lookup()),
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(ctx, cfg, router)
	go func() {
		logger.Info().
			Str("backend", service.Name()).
			Bool("history", history != nil).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	registry.Close()
	logger.Info().Msg("server stopped")
}
