package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/middleware"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/upload"
)

type RouterOptions struct {
	Service  *services.DreamService
	Policy   *upload.Policy
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// ShowDetail exposes upstream error causes to clients.
	ShowDetail bool
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", HealthHandler)

	dreams := NewDreamsHandler(opts.Service, opts.Policy, opts.ShowDetail)
	story := NewStoryHandler(opts.Service, opts.Policy, opts.ShowDetail)
	animation := NewAnimationHandler(opts.Service, opts.Policy, opts.ShowDetail)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(opts.Verifier, opts.Logger))

	// Generation endpoints share one bucket per caller.
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{opts.Limiter.Handler(), h}
	}

	// Dreams
	api.POST("/dreams", limited(dreams.SubmitDream)...)
	api.GET("/dreams", dreams.ListDreams)
	api.GET("/dreams/:id", dreams.GetDream)
	api.PUT("/dreams/:id", dreams.UpdateDream)
	api.DELETE("/dreams/:id", dreams.DeleteDream)

	// Story
	api.POST("/story/generate", limited(story.GenerateStory)...)
	api.POST("/story/generate-from-image", limited(story.GenerateStoryFromImage)...)
	api.POST("/story/generate-audio", limited(story.GenerateAudio)...)

	// Animation
	api.POST("/animation/generate-from-text", limited(animation.GenerateFromText)...)
	api.POST("/animation/generate-from-image", limited(animation.GenerateFromImage)...)
	api.POST("/animation/generate-combined", limited(animation.GenerateCombined)...)
	api.GET("/animation/status/:predictionId", animation.PredictionStatus)

	return router
}
