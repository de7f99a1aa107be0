package models

import "time"

// Actor roles recorded on audit entries and comment messages.
const (
	RoleTrainee    = "trainee"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
	RoleSystem     = "system"
)

// AuditEntry is an immutable record of one workflow transition. Rows are
// created exactly once, inside the same transaction as the status change
// they describe, and are never updated or deleted.
type AuditEntry struct {
	AuditID    int           `gorm:"primaryKey;column:audit_id" json:"audit_id"`
	LogbookID  int           `gorm:"column:logbook_id;index" json:"logbook_id"`
	ActorID    int           `gorm:"column:actor_id" json:"actor_id"`
	ActorRole  string        `gorm:"column:actor_role" json:"actor_role"`
	Action     string        `gorm:"column:action" json:"action"`
	FromStatus LogbookStatus `gorm:"column:from_status" json:"from_status"`
	ToStatus   LogbookStatus `gorm:"column:to_status" json:"to_status"`
	Reason     *string       `gorm:"column:reason" json:"reason,omitempty"`
	IPAddress  *string       `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent  *string       `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time     `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName specifies the table name for AuditEntry.
func (AuditEntry) TableName() string {
	return "logbook_audit_log"
}
