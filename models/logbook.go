package models

import "time"

// LogbookStatus is the closed set of workflow states for a weekly logbook.
// Transitions between them are owned by services.WorkflowService; nothing
// else writes the status column directly.
type LogbookStatus string

const (
	StatusDraft            LogbookStatus = "draft"
	StatusReady            LogbookStatus = "ready"
	StatusSubmitted        LogbookStatus = "submitted"
	StatusReturnedForEdits LogbookStatus = "returned_for_edits"
	StatusRejected         LogbookStatus = "rejected"
	StatusApproved         LogbookStatus = "approved"
	StatusLocked           LogbookStatus = "locked"
	StatusUnlockedForEdits LogbookStatus = "unlocked_for_edits"
)

// AllStatuses lists every valid status value, used for request validation.
var AllStatuses = []LogbookStatus{
	StatusDraft,
	StatusReady,
	StatusSubmitted,
	StatusReturnedForEdits,
	StatusRejected,
	StatusApproved,
	StatusLocked,
	StatusUnlockedForEdits,
}

// IsValid reports whether s is one of the known workflow states.
func (s LogbookStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Editable reports whether entries under a logbook in this status may be
// mutated. unlocked_for_edits additionally requires an unexpired unlock,
// which the unlock service checks before trusting the stored status.
func (s LogbookStatus) Editable() bool {
	switch s {
	case StatusDraft, StatusReady, StatusReturnedForEdits, StatusRejected, StatusUnlockedForEdits:
		return true
	}
	return false
}

// Logbook represents one trainee's weekly supervised-practice record.
type Logbook struct {
	LogbookID          int           `gorm:"primaryKey;column:logbook_id" json:"logbook_id"`
	OwnerID            int           `gorm:"column:owner_id;uniqueIndex:uq_owner_week" json:"owner_id"`
	WeekStartDate      time.Time     `gorm:"column:week_start_date;uniqueIndex:uq_owner_week" json:"week_start_date"`
	WeekEndDate        time.Time     `gorm:"column:week_end_date" json:"week_end_date"`
	Status             LogbookStatus `gorm:"column:status" json:"status"`
	SubmittedAt        *time.Time    `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ResubmittedAt      *time.Time    `gorm:"column:resubmitted_at" json:"resubmitted_at,omitempty"`
	ReviewedAt         *time.Time    `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy         *int          `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	SupervisorComments *string       `gorm:"column:supervisor_comments" json:"supervisor_comments,omitempty"`
	IsLocked           bool          `gorm:"column:is_locked" json:"is_locked"`
	ActiveUnlockID     *int          `gorm:"column:active_unlock_id" json:"active_unlock_id,omitempty"`
	Regenerated        bool          `gorm:"column:regenerated" json:"regenerated"`
	TotalMinutes       int           `gorm:"column:total_minutes" json:"total_minutes"`
	CreatedAt          time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"column:updated_at" json:"updated_at"`

	// Derived on read, not a stored column.
	AuditLogCount int64 `gorm:"-" json:"audit_log_count"`

	// Relations
	Owner        *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Reviewer     *User          `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ActiveUnlock *UnlockRequest `gorm:"foreignKey:ActiveUnlockID" json:"active_unlock,omitempty"`
}

// TableName specifies the table name for Logbook.
func (Logbook) TableName() string {
	return "logbooks"
}

// FirstSubmission reports whether the logbook has never been submitted.
func (l *Logbook) FirstSubmission() bool {
	return l.SubmittedAt == nil
}
