package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"logbook-api/services"

	"github.com/gin-gonic/gin"
)

// CreateUnlockRequest asks for a time-boxed edit window on a locked or
// approved logbook.
func CreateUnlockRequest(c *gin.Context) {
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
		DurationMinutes int    `json:"durationMinutes" binding:"required"`
		Reason          string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "durationMinutes is required"})
		return
	}

	unlock, err := unlockService().Request(logbookID, actor, req.DurationMinutes, strings.TrimSpace(req.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"requestId": unlock.RequestID,
		"request":   unlock,
	})
}

// DecideUnlockRequest resolves a pending unlock request. Approval may
// override the requested window length.
func DecideUnlockRequest(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	requestID := strings.TrimSpace(c.Param("id"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req struct {
		Decision        string `json:"decision" binding:"required"`
		DurationMinutes *int   `json:"durationMinutes"`
		Reason          string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != "approve" && decision != "deny" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be either 'approve' or 'deny'"})
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if decision == "deny" && reason == "" {
		respondServiceError(c, services.ErrMissingReason)
		return
	}

	lb, err := unlockService().Decide(requestID, actor, decision == "approve", req.DurationMinutes, reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	event := services.EventUnlockDeny
	if decision == "approve" {
		event = services.EventUnlockApprove
	}
	notificationService().NotifyDecision(lb, event, reason)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  lb.Status,
	})
}

// GetUnlockRequests lists a logbook's unlock history.
func GetUnlockRequests(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	requests, err := unlockService().ListRequests(logbookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch unlock requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"requests": requests,
		"total":    len(requests),
	})
}
