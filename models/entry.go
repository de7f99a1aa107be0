package models

import "time"

// Entry sections mirror the paper logbook: A = direct client work,
// B = professional activity, C = supervision.
const (
	SectionA = "A"
	SectionB = "B"
	SectionC = "C"
)

// ValidSection reports whether section is one of A, B or C.
func ValidSection(section string) bool {
	return section == SectionA || section == SectionB || section == SectionC
}

// LogbookEntry is one recorded activity inside a weekly logbook. Entries are
// the collaborator data the workflow validates against: a logbook with zero
// entries cannot be submitted, and entry mutation is gated on the logbook's
// effective status.
type LogbookEntry struct {
	EntryID         int       `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	LogbookID       int       `gorm:"column:logbook_id;index" json:"logbook_id"`
	OwnerID         int       `gorm:"column:owner_id" json:"owner_id"`
	Section         string    `gorm:"column:section" json:"section"`
	SessionDate     time.Time `gorm:"column:session_date" json:"session_date"`
	DurationMinutes int       `gorm:"column:duration_minutes" json:"duration_minutes"`
	Description     string    `gorm:"column:description" json:"description"`
	IsLocked        bool      `gorm:"column:is_locked" json:"is_locked"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for LogbookEntry.
func (LogbookEntry) TableName() string {
	return "logbook_entries"
}
