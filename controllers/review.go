package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"logbook-api/config"
	"logbook-api/models"
	"logbook-api/services"

	"github.com/gin-gonic/gin"
)

var reviewEvents = map[string]services.Event{
	"approve":          services.EventApprove,
	"reject":           services.EventReject,
	"return_for_edits": services.EventReturnForEdits,
}

// GetReviewQueue lists submitted logbooks awaiting this supervisor's
// decision. Resubmitted logbooks (changed since the last review) are
// flagged so they surface again.
func GetReviewQueue(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Model(&models.Logbook{}).
		Preload("Owner").
		Where("status = ?", models.StatusSubmitted)

	if actor.Role == models.RoleSupervisor {
		traineeIDs := config.DB.Model(&models.User{}).
			Select("user_id").
			Where("supervisor_id = ? AND deleted_at IS NULL", actor.UserID)
		query = query.Where("owner_id IN (?)", traineeIDs)
	}

	var logbooks []models.Logbook
	if err := query.Order("submitted_at ASC").Find(&logbooks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review queue"})
		return
	}

	type queueRow struct {
		models.Logbook
		Resubmission bool `json:"resubmission"`
	}
	rows := make([]queueRow, 0, len(logbooks))
	for i := range logbooks {
		lb := logbooks[i]
		resub := lb.ResubmittedAt != nil && lb.ReviewedAt != nil && lb.ResubmittedAt.After(*lb.ReviewedAt)
		rows = append(rows, queueRow{Logbook: lb, Resubmission: resub})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"logbooks": rows,
		"total":    len(rows),
	})
}

// ReviewLogbook applies a supervisor decision: approve, reject or
// return_for_edits. Reject and return require a general comment, which is
// mirrored into the logbook's general thread.
func ReviewLogbook(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	var req struct {
		Decision       string                  `json:"decision" binding:"required"`
		GeneralComment string                  `json:"generalComment"`
		EntryComments  []services.EntryComment `json:"entryComments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	event, known := reviewEvents[strings.ToLower(strings.TrimSpace(req.Decision))]
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be approve, reject or return_for_edits"})
		return
	}

	lb, err := workflowService().Review(logbookID, actor, event, req.GeneralComment, req.EntryComments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	notificationService().NotifyDecision(lb, event, strings.TrimSpace(req.GeneralComment))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  lb.Status,
	})
}
