package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/api/handlers"
	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/services"
	"github.com/jstittsworth/fpl-predictor/pkg/database"
)

// SetupRoutes configures the serving endpoints under the given group.
// cache, images, scheduler and db may be nil; the handlers degrade
// gracefully without them.
func SetupRoutes(group *gin.RouterGroup, store *artifact.Store, cache fpl.CacheProvider, images handlers.ImageResolver, scheduler *services.SchedulerService, db *database.DB, logger *logrus.Logger) {
	healthHandler := handlers.NewHealthHandler()
	predictionsHandler := handlers.NewPredictionsHandler(store, cache, images, logger)
	refreshHandler := handlers.NewRefreshHandler(scheduler)
	runsHandler := handlers.NewRunsHandler(db)

	group.GET("/health", healthHandler.GetHealth)
	group.GET("/predictions", predictionsHandler.GetPredictions)
	group.GET("/teams", predictionsHandler.GetTeams)
	group.GET("/stats", predictionsHandler.GetStats)
	group.GET("/runs", runsHandler.GetRuns)
	group.POST("/refresh", refreshHandler.Refresh)
}
