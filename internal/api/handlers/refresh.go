package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-predictor/internal/services"
	"github.com/jstittsworth/fpl-predictor/pkg/utils"
)

// RefreshHandler triggers an on-demand pipeline run.
type RefreshHandler struct {
	scheduler *services.SchedulerService
}

func NewRefreshHandler(scheduler *services.SchedulerService) *RefreshHandler {
	return &RefreshHandler{scheduler: scheduler}
}

// Refresh handles POST /api/refresh. The run happens in the background;
// 202 means it was started, 409 means one is already in flight.
func (h *RefreshHandler) Refresh(c *gin.Context) {
	if h.scheduler == nil {
		utils.SendUnavailable(c, "Scheduler is not enabled")
		return
	}

	if !h.scheduler.RunOnDemand() {
		c.JSON(http.StatusConflict, gin.H{
			"triggered": false,
			"message":   "a prediction run is already in progress",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"triggered": true,
		"message":   "prediction run started",
	})
}
