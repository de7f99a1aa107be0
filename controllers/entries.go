package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type entryRequest struct {
	Section         string `json:"section" binding:"required"`
	SessionDate     string `json:"session_date" binding:"required"` // YYYY-MM-DD
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	Description     string `json:"description"`
}

func (r *entryRequest) parseDate(c *gin.Context) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", r.SessionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_date must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// GetEntries lists a logbook's activity entries.
func GetEntries(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	entries, err := entryService().List(logbookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
		"total":   len(entries),
	})
}

// CreateEntry adds an activity entry. Fails with LogbookLocked once the
// logbook is in a non-editable status.
func CreateEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logbookID, err := strconv.Atoi(c.Param("id"))
	if err != nil || logbookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid logbook ID"})
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section, session_date and duration_minutes are required"})
		return
	}
	sessionDate, ok := req.parseDate(c)
	if !ok {
		return
	}

	entry, err := entryService().Create(logbookID, actor, req.Section, sessionDate, req.DurationMinutes, req.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"entry":   entry,
	})
}

// UpdateEntry rewrites an entry, subject to the same status gate.
func UpdateEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil || entryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section, session_date and duration_minutes are required"})
		return
	}
	sessionDate, ok := req.parseDate(c)
	if !ok {
		return
	}

	entry, err := entryService().Update(entryID, actor, req.Section, sessionDate, req.DurationMinutes, req.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entry":   entry,
	})
}

// DeleteEntry removes an entry, subject to the same status gate.
func DeleteEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil || entryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	if err := entryService().Delete(entryID, actor); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Entry deleted",
	})
}
