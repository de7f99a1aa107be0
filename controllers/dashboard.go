package controllers

import (
	"net/http"
	"time"

	"logbook-api/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns the role-appropriate summary: trainees get
// their own logbook counts and next due date, reviewers get the work queue.
// Everything is recomputed on read; nothing is cached server-side.
func GetDashboardStats(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	stats := gin.H{
		"current_date": time.Now().Format("2006-01-02"),
	}

	switch actor.Role {
	case models.RoleSupervisor, models.RoleAdmin:
		queue, err := metricsService().SupervisorStats(actor.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dashboard stats"})
			return
		}
		stats["queue"] = queue
	default:
		summary, err := metricsService().TraineeStats(actor.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dashboard stats"})
			return
		}
		stats["logbooks"] = summary
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
