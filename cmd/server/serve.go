package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"vision-board-backend/docs"
	"vision-board-backend/internal/config"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/handlers"
	"vision-board-backend/internal/logging"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/middleware"
	"vision-board-backend/internal/openai"
	"vision-board-backend/internal/replicate"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/staging"
	"vision-board-backend/internal/supabase"
	"vision-board-backend/internal/upload"
)

const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	SkipMigrations bool
}

func runServer(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	configureSwagger(cfg.BaseURL)

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize supabase client: %w", err)
	}

	store, closeStore, err := newProjectStore(ctx, cfg, supabaseClient, opts, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	media, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	var verifier middleware.TokenVerifier
	if cfg.SupabaseJWTSecret != "" {
		verifier = middleware.NewJWTVerifier(cfg.SupabaseJWTSecret)
	} else {
		logger.Info("SUPABASE_JWT_SECRET not set, validating tokens with Supabase Auth")
		verifier = supabase.NewAuthVerifier(supabaseClient.Supabase)
	}

	area, err := staging.NewArea(cfg.UploadDir)
	if err != nil {
		return err
	}
	janitor, err := staging.NewJanitor(area, cfg.StagingSweepSchedule, cfg.StagingTTL, logger)
	if err != nil {
		return err
	}
	janitor.RunOnce()
	janitor.Start()

	textProvider := openai.NewClient(openai.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		VisionModel: cfg.OpenAIVisionModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		TTSModel:    cfg.TTSModel,
		TTSVoice:    cfg.TTSVoice,
	})
	animationProvider := replicate.NewClient(replicate.Options{
		BaseURL:           cfg.ReplicateBaseURL,
		APIToken:          cfg.ReplicateAPIToken,
		TextToVideoModel:  cfg.ReplicateAnimationModel,
		ImageToVideoModel: cfg.ReplicateImageToVideoModel,
		PollInterval:      cfg.ReplicatePollInterval,
	})

	m := metrics.New()
	service := services.NewDreamService(textProvider, animationProvider, store, media, area, m, logger,
		services.Options{PipelineTimeout: cfg.PipelineTimeout})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	limiter.StartCleanup(ctx, 10*time.Minute, time.Hour)

	router := handlers.NewRouter(handlers.RouterOptions{
		Service:    service,
		Policy:     upload.NewPolicy(cfg.MaxFileSize, cfg.MaxFiles, cfg.AllowedFileTypes),
		Verifier:   verifier,
		Limiter:    limiter,
		Metrics:    m,
		Logger:     logger,
		ShowDetail: !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := service.Shutdown(shutdownCtx); err != nil {
		logger.Warn("background pipelines still running at exit", zap.Error(err))
	}
	janitor.Stop(shutdownCtx)
	return nil
}

// newProjectStore connects straight to postgres when DATABASE_URL is set and
// falls back to the PostgREST API otherwise.
func newProjectStore(ctx context.Context, cfg *config.Config, client *supabase.Client, opts serveOptions, logger *zap.Logger) (services.ProjectStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using the Supabase REST API for projects; migrations are skipped")
		return supabase.NewRESTClient(client.Supabase), func() {}, nil
	}

	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	if !opts.SkipMigrations {
		if err := database.NewMigratorWithDB(db.DB(), logger).Run(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, func() { db.Close() }, nil
}

func configureSwagger(baseURL string) {
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}
