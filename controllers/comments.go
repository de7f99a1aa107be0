package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AddComment appends a message to the thread for the given scope, creating
// the thread on first use.
func AddComment(c *gin.Context) {
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
		ThreadType   string `json:"threadType" binding:"required"`
		EntryID      int    `json:"entryId"`
		EntrySection string `json:"entrySection"`
		Message      string `json:"message" binding:"required"`
		ReplyTo      *int   `json:"replyTo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threadType and message are required"})
		return
	}

	msg, err := commentService().AddComment(logbookID, actor, req.ThreadType, req.EntryID, req.EntrySection, req.Message, req.ReplyTo)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": msg,
	})
}

// GetComments lists a logbook's threads with messages oldest first,
// optionally filtered by thread type.
func GetComments(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	threads, err := commentService().ListThreads(logbookID, c.Query("threadType"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"threads": threads,
		"total":   len(threads),
	})
}
