package controllers

import (
	"net/http"
	"strconv"
	"time"

	"logbook-api/config"
	"logbook-api/models"
	"logbook-api/services"
	"logbook-api/utils"

	"github.com/gin-gonic/gin"
)

// CreateLogbook opens a draft logbook for the week containing the given
// date. One logbook exists per (trainee, week).
func CreateLogbook(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		WeekDate string `json:"week_date" binding:"required"` // any date inside the week, YYYY-MM-DD
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_date is required"})
		return
	}

	weekDate, err := time.Parse("2006-01-02", req.WeekDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_date must be YYYY-MM-DD"})
		return
	}

	lb, err := workflowService().CreateLogbook(actor.UserID, weekDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"logbook": lb,
	})
}

// GetLogbooks lists logbooks visible to the caller: trainees see their own,
// supervisors see their trainees', admins see everything. Every row passes
// through the lazy unlock-expiry check before it is returned.
func GetLogbooks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Model(&models.Logbook{}).Preload("Owner")

	switch actor.Role {
	case models.RoleTrainee:
		query = query.Where("owner_id = ?", actor.UserID)
	case models.RoleSupervisor:
		traineeIDs := config.DB.Model(&models.User{}).
			Select("user_id").
			Where("supervisor_id = ? AND deleted_at IS NULL", actor.UserID)
		query = query.Where("owner_id IN (?)", traineeIDs)
	}

	if status := c.Query("status"); status != "" {
		if !models.LogbookStatus(status).IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", status)
	}
	if ownerParam := c.Query("owner_id"); ownerParam != "" && actor.Role != models.RoleTrainee {
		ownerID, err := strconv.Atoi(ownerParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner_id filter"})
			return
		}
		query = query.Where("owner_id = ?", ownerID)
	}

	var logbooks []models.Logbook
	if err := query.Order("week_start_date DESC").Find(&logbooks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logbooks"})
		return
	}

	now := time.Now()
	graceDays := models.GetSubmissionDeadlineDays(config.DB)
	unlock := unlockService()

	type logbookRow struct {
		models.Logbook
		Overdue bool `json:"overdue"`
	}
	rows := make([]logbookRow, 0, len(logbooks))
	for i := range logbooks {
		if _, err := unlock.EffectiveStatus(&logbooks[i], now); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve logbook status"})
			return
		}
		rows = append(rows, logbookRow{
			Logbook: logbooks[i],
			Overdue: utils.IsOverdue(now, logbooks[i].WeekStartDate, graceDays, string(logbooks[i].Status)),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"logbooks": rows,
		"total":    len(rows),
	})
}

// GetLogbook returns one logbook with derived fields: effective status,
// audit count, overdue flag and the active unlock if any.
func GetLogbook(c *gin.Context) {
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

	now := time.Now()
	if _, err := unlockService().EffectiveStatus(lb, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve logbook status"})
		return
	}
	if lb.ActiveUnlockID != nil {
		var unlock models.UnlockRequest
		if err := config.DB.Where("unlock_id = ?", *lb.ActiveUnlockID).First(&unlock).Error; err == nil {
			lb.ActiveUnlock = &unlock
		}
	}

	graceDays := models.GetSubmissionDeadlineDays(config.DB)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logbook": lb,
		"overdue": utils.IsOverdue(now, lb.WeekStartDate, graceDays, string(lb.Status)),
	})
}

// SubmitLogbook moves the logbook into the supervisor's queue.
func SubmitLogbook(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	lb, err := workflowService().Submit(logbookID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	notificationService().NotifySubmission(lb)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  lb.Status,
	})
}

// MarkLogbookReady stages a draft for submission.
func MarkLogbookReady(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	lb, err := workflowService().MarkReady(logbookID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  lb.Status,
	})
}

// RegenerateLogbook rebuilds the cached totals from the entry rows.
func RegenerateLogbook(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	lb, err := workflowService().Regenerate(logbookID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logbook": lb,
	})
}
