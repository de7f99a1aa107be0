package services

import (
	"errors"
	"strings"
	"time"

	"logbook-api/models"

	"gorm.io/gorm"
)

// CommentService manages the threaded conversations attached to a logbook,
// one of its sections, or a single entry. Threads and messages are
// append-only; a correction is a new message.
type CommentService struct {
	db     *gorm.DB
	unlock *UnlockService
}

func NewCommentService(db *gorm.DB, unlock *UnlockService) *CommentService {
	return &CommentService{db: db, unlock: unlock}
}

// AddComment resolves or creates the thread for the given scope and appends
// the message. Trainees cannot comment on a locked logbook; supervisors can,
// since review feedback precedes a decision.
func (s *CommentService) AddComment(logbookID int, actor Actor, threadType string, entryID int, entrySection string, message string, replyTo *int) (*models.CommentMessage, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if err := validateScope(threadType, entryID, entrySection); err != nil {
		return nil, err
	}

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
	if status == models.StatusLocked && actor.Role == models.RoleTrainee {
		return nil, ErrLogbookLocked
	}

	out := models.CommentMessage{
		AuthorID:   actor.UserID,
		AuthorRole: actor.Role,
		Message:    msg,
		ReplyTo:    replyTo,
		CreatedAt:  time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return appendThreadMessageInto(tx, logbookID, threadType, entryID, entrySection, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListThreads returns the logbook's threads, optionally filtered by type,
// with messages oldest first.
func (s *CommentService) ListThreads(logbookID int, threadType string) ([]models.CommentThread, error) {
	query := s.db.Where("logbook_id = ?", logbookID)
	if threadType != "" {
		query = query.Where("thread_type = ?", threadType)
	}

	var threads []models.CommentThread
	if err := query.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, message_id ASC")
		}).
		Order("thread_id ASC").
		Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

// validateScope enforces the scope-key shape: general threads carry no
// entry or section, section threads carry a section only, entry threads
// carry both.
func validateScope(threadType string, entryID int, entrySection string) error {
	switch threadType {
	case models.ThreadGeneral:
		if entryID != 0 || entrySection != "" {
			return ErrInvalidScope
		}
	case models.ThreadSection:
		if entryID != 0 || !models.ValidSection(entrySection) {
			return ErrInvalidScope
		}
	case models.ThreadEntry:
		if entryID == 0 || !models.ValidSection(entrySection) {
			return ErrInvalidScope
		}
	default:
		return ErrInvalidScope
	}
	return nil
}

// appendThreadMessage resolves the scope's thread and appends msg inside tx.
// Used by the workflow service for system-generated decision messages.
func appendThreadMessage(tx *gorm.DB, logbookID int, threadType string, entryID int, entrySection string, msg models.CommentMessage) error {
	return appendThreadMessageInto(tx, logbookID, threadType, entryID, entrySection, &msg)
}

func appendThreadMessageInto(tx *gorm.DB, logbookID int, threadType string, entryID int, entrySection string, msg *models.CommentMessage) error {
	thread := models.CommentThread{
		LogbookID:    logbookID,
		ThreadType:   threadType,
		EntryID:      entryID,
		EntrySection: entrySection,
	}
	// Same scope key resolves to the same thread; the unique index backs
	// this up against races. Map conditions keep the zero-valued scope
	// columns in the lookup.
	if err := tx.Where(map[string]interface{}{
		"logbook_id":    logbookID,
		"thread_type":   threadType,
		"entry_id":      entryID,
		"entry_section": entrySection,
	}).Attrs(models.CommentThread{CreatedAt: time.Now()}).
		FirstOrCreate(&thread).Error; err != nil {
		return err
	}

	msg.ThreadID = thread.ThreadID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return tx.Create(msg).Error
}
