package models

import (
	"strconv"

	"gorm.io/gorm"
)

// SystemConfig represents key-value configuration settings such as the
// submission grace period.
type SystemConfig struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

// TableName specifies the table name for GORM
func (SystemConfig) TableName() string {
	return "system_config"
}

// DefaultGraceDays is the fallback grace period after week-end before a
// logbook counts as overdue. The system_config row submission_deadline_days
// is authoritative when present.
const DefaultGraceDays = 14

// GetSubmissionDeadlineDays fetches the configured grace period from
// system_config, falling back to DefaultGraceDays when the row is missing
// or malformed.
func GetSubmissionDeadlineDays(db *gorm.DB) int {
	var cfg SystemConfig
	if err := db.Where("`key` = ?", "submission_deadline_days").First(&cfg).Error; err != nil {
		return DefaultGraceDays
	}
	days, err := strconv.Atoi(cfg.Value)
	if err != nil || days < 0 {
		return DefaultGraceDays
	}
	return days
}
