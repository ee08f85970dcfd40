package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"vision-board-backend/internal/models"
)

// HealthHandler reports liveness. It is mounted at the root, outside the
// documented /api/v1 base path, so it stays out of the swagger document.
func HealthHandler(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	c.JSON(http.StatusOK, response)
}
