package models

import "time"

// Notification is an in-app message raised when a workflow event affects a
// user: a submission landing in a supervisor's queue, a decision coming back
// to a trainee, an unlock request being decided.
type Notification struct {
	NotificationID   int        `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID           int        `gorm:"column:user_id;index" json:"user_id"`
	Title            string     `gorm:"column:title" json:"title"`
	Message          string     `gorm:"column:message" json:"message"`
	Type             string     `gorm:"column:type" json:"type"` // info|success|warning|error
	RelatedLogbookID *int       `gorm:"column:related_logbook_id" json:"related_logbook_id,omitempty"`
	IsRead           bool       `gorm:"column:is_read" json:"is_read"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        *time.Time `gorm:"column:updated_at" json:"-"`
}

// TableName specifies the table name for Notification.
func (Notification) TableName() string {
	return "notifications"
}
