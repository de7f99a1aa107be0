package services

import (
	"errors"
	"strings"
	"time"

	"logbook-api/models"

	"gorm.io/gorm"
)

// EntryService is the status-gated mutation surface for activity entries.
// Concurrent-edit protection is the gate itself: entries are writable only
// while the logbook's effective status is editable, never via row locks.
type EntryService struct {
	db     *gorm.DB
	unlock *UnlockService
}

func NewEntryService(db *gorm.DB, unlock *UnlockService) *EntryService {
	return &EntryService{db: db, unlock: unlock}
}

// List returns a logbook's entries ordered by session date.
func (s *EntryService) List(logbookID int) ([]models.LogbookEntry, error) {
	var entries []models.LogbookEntry
	if err := s.db.Where("logbook_id = ?", logbookID).
		Order("session_date ASC, entry_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Create adds an activity entry to an editable logbook and refreshes the
// cached weekly total.
func (s *EntryService) Create(logbookID int, actor Actor, section string, sessionDate time.Time, durationMinutes int, description string) (*models.LogbookEntry, error) {
	if !models.ValidSection(section) {
		return nil, ErrInvalidScope
	}
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	lb, err := s.editableLogbook(logbookID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := models.LogbookEntry{
		LogbookID:       lb.LogbookID,
		OwnerID:         lb.OwnerID,
		Section:         section,
		SessionDate:     sessionDate,
		DurationMinutes: durationMinutes,
		Description:     strings.TrimSpace(description),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return refreshTotal(tx, lb.LogbookID, now)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update rewrites an entry's mutable fields, subject to the same gate.
func (s *EntryService) Update(entryID int, actor Actor, section string, sessionDate time.Time, durationMinutes int, description string) (*models.LogbookEntry, error) {
	if !models.ValidSection(section) {
		return nil, ErrInvalidScope
	}
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	var entry models.LogbookEntry
	if err := s.db.Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.editableLogbook(entry.LogbookID, actor); err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LogbookEntry{}).
			Where("entry_id = ?", entry.EntryID).
			Updates(map[string]interface{}{
				"section":          section,
				"session_date":     sessionDate,
				"duration_minutes": durationMinutes,
				"description":      strings.TrimSpace(description),
				"updated_at":       now,
			}).Error; err != nil {
			return err
		}
		return refreshTotal(tx, entry.LogbookID, now)
	})
	if err != nil {
		return nil, err
	}

	entry.Section = section
	entry.SessionDate = sessionDate
	entry.DurationMinutes = durationMinutes
	entry.Description = strings.TrimSpace(description)
	entry.UpdatedAt = now
	return &entry, nil
}

// Delete removes an entry, subject to the same gate.
func (s *EntryService) Delete(entryID int, actor Actor) error {
	var entry models.LogbookEntry
	if err := s.db.Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if _, err := s.editableLogbook(entry.LogbookID, actor); err != nil {
		return err
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.LogbookEntry{}, "entry_id = ?", entry.EntryID).Error; err != nil {
			return err
		}
		return refreshTotal(tx, entry.LogbookID, now)
	})
}

// editableLogbook loads the logbook, applies the lazy expiry check, and
// rejects the mutation with ErrLogbookLocked unless the effective status is
// in the editable set.
func (s *EntryService) editableLogbook(logbookID int, actor Actor) (*models.Logbook, error) {
	var lb models.Logbook
	if err := s.db.Where("logbook_id = ?", logbookID).First(&lb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.Role == models.RoleTrainee && lb.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}

	status, err := s.unlock.EffectiveStatus(&lb, time.Now())
	if err != nil {
		return nil, err
	}
	if !status.Editable() {
		return nil, ErrLogbookLocked
	}
	return &lb, nil
}

// refreshTotal recomputes the cached weekly total after an entry mutation.
func refreshTotal(tx *gorm.DB, logbookID int, now time.Time) error {
	var total int64
	if err := tx.Model(&models.LogbookEntry{}).
		Where("logbook_id = ?", logbookID).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&models.Logbook{}).
		Where("logbook_id = ?", logbookID).
		Updates(map[string]interface{}{"total_minutes": total, "updated_at": now}).Error
}
