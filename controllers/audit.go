package controllers

import (
	"net/http"
	"strconv"

	"logbook-api/models"
	"logbook-api/services"

	"github.com/gin-gonic/gin"
)

// GetAuditTrail returns a logbook's transition history ordered oldest
// first. Trainees may only read their own.
func GetAuditTrail(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	lb, err := workflowService().GetLogbook(logbookID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if actor.Role == models.RoleTrainee && lb.OwnerID != actor.UserID {
		respondServiceError(c, services.ErrForbidden)
		return
	}

	entries, err := workflowService().AuditTrail(logbookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"audit":   entries,
		"total":   len(entries),
	})
}
