package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-predictor/internal/models"
	"github.com/jstittsworth/fpl-predictor/pkg/database"
	"github.com/jstittsworth/fpl-predictor/pkg/utils"
)

// RunsHandler exposes pipeline run history for diagnostics.
type RunsHandler struct {
	db *database.DB
}

func NewRunsHandler(db *database.DB) *RunsHandler {
	return &RunsHandler{db: db}
}

// GetRuns handles GET /api/runs.
func (h *RunsHandler) GetRuns(c *gin.Context) {
	if h.db == nil {
		utils.SendUnavailable(c, "Run history is not enabled")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 20
	}

	var runs []models.PredictionRun
	if err := h.db.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch run history")
		return
	}

	utils.SendSuccess(c, runs)
}
