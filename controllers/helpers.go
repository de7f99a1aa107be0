package controllers

import (
	"errors"
	"net/http"

	"logbook-api/config"
	"logbook-api/services"

	"github.com/gin-gonic/gin"
)

// actorFromContext builds the workflow actor from the auth middleware's
// context values plus request metadata for the audit log.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userIDValue, userExists := c.Get("userID")
	roleValue, roleExists := c.Get("role")
	if !userExists || !roleExists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return services.Actor{}, false
	}

	userID, okUser := userIDValue.(int)
	role, okRole := roleValue.(string)
	if !okUser || !okRole {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return services.Actor{}, false
	}

	return services.Actor{
		UserID:    userID,
		Role:      role,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

// respondServiceError maps the workflow error taxonomy onto HTTP statuses.
// The code field carries the machine-readable name the frontend switches on.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "NotFound"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "Forbidden"})
	case errors.Is(err, services.ErrEmptyLogbook):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "EmptyLogbook"})
	case errors.Is(err, services.ErrMissingReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "MissingReason"})
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrInvalidScope), errors.Is(err, services.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidRequest"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "InvalidTransition"})
	case errors.Is(err, services.ErrStaleState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "StaleState"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "Conflict"})
	case errors.Is(err, services.ErrLogbookLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "LogbookLocked"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Service accessors. Controllers are stateless package functions in this
// codebase; services are cheap wrappers around the shared DB handle.
func workflowService() *services.WorkflowService {
	return services.NewWorkflowService(config.DB)
}

func unlockService() *services.UnlockService {
	return services.NewUnlockService(config.DB)
}

func commentService() *services.CommentService {
	return services.NewCommentService(config.DB, unlockService())
}

func entryService() *services.EntryService {
	return services.NewEntryService(config.DB, unlockService())
}

func metricsService() *services.MetricsService {
	return services.NewMetricsService(config.DB, unlockService())
}

func notificationService() *services.NotificationService {
	return services.NewNotificationService(config.DB)
}
