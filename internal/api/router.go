package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/prop-projector/internal/api/handlers"
	"github.com/stitts-dev/prop-projector/internal/api/middleware"
	"github.com/stitts-dev/prop-projector/pkg/config"
)

// Handlers bundles the route handlers mounted under /api/v1
type Handlers struct {
	Projection *handlers.ProjectionHandler
	Models     *handlers.ModelHandler
	Health     *handlers.HealthHandler
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, h Handlers, cfg *config.Config) {
	group.POST("/projections",
		middleware.RateLimit(rate.Limit(cfg.ProjectRateLimit), cfg.ProjectRateBurst),
		h.Projection.CreateProjection,
	)

	modelGroup := group.Group("/models")
	{
		modelGroup.GET("", h.Models.ListModels)
		modelGroup.POST("/train", h.Models.TrainModel)
		modelGroup.POST("/train-all", h.Models.TrainAllModels)
		modelGroup.GET("/:scope/:stat/:season", h.Models.GetModel)
		modelGroup.DELETE("/:scope/:stat/:season", h.Models.DeleteModel)
	}
}

// SetupOperational mounts health, readiness and metrics at the root
func SetupOperational(router *gin.Engine, health *handlers.HealthHandler, gatherer prometheus.Gatherer) {
	router.GET("/health", health.GetHealth)
	router.GET("/ready", health.GetReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
