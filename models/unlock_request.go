package models

import "time"

// Unlock request decisions.
const (
	UnlockPending  = "pending"
	UnlockApproved = "approved"
	UnlockDenied   = "denied"
)

// UnlockRequest is a time-boxed exception allowing edits to an otherwise
// locked or approved logbook. At most one pending or unexpired-approved
// request exists per logbook at a time.
type UnlockRequest struct {
	UnlockID        int        `gorm:"primaryKey;column:unlock_id" json:"unlock_id"`
	RequestID       string     `gorm:"column:request_id;uniqueIndex" json:"request_id"`
	LogbookID       int        `gorm:"column:logbook_id;index" json:"logbook_id"`
	RequestedBy     int        `gorm:"column:requested_by" json:"requested_by"`
	RequestedAt     time.Time  `gorm:"column:requested_at" json:"requested_at"`
	Reason          *string    `gorm:"column:reason" json:"reason,omitempty"`
	DurationMinutes int        `gorm:"column:duration_minutes" json:"duration_minutes"`
	Decision        string     `gorm:"column:decision" json:"decision"`
	DecidedBy       *int       `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt       *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	ExpiresAt       *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	Requester *User `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	Decider   *User `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
}

// TableName specifies the table name for UnlockRequest.
func (UnlockRequest) TableName() string {
	return "unlock_requests"
}

// ExpiredAt reports whether an approved unlock window has already closed at
// the given instant. Pending and denied requests never count as expired.
func (u *UnlockRequest) ExpiredAt(now time.Time) bool {
	return u.Decision == UnlockApproved && u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}

// ActiveAt reports whether the request still blocks new unlock requests:
// either awaiting a decision or approved with an open window.
func (u *UnlockRequest) ActiveAt(now time.Time) bool {
	switch u.Decision {
	case UnlockPending:
		return true
	case UnlockApproved:
		return u.ExpiresAt != nil && now.Before(*u.ExpiresAt)
	}
	return false
}
