package services

import (
	"errors"
	"strings"
	"time"

	"logbook-api/models"
	"logbook-api/utils"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Actor identifies who is driving a transition. IP and user agent are
// carried through to the audit log when present.
type Actor struct {
	UserID    int
	Role      string
	IPAddress string
	UserAgent string
}

// EntryComment is a per-entry remark attached alongside a review decision.
type EntryComment struct {
	EntryID int    `json:"entry_id"`
	Section string `json:"section"`
	Message string `json:"message"`
}

// WorkflowService owns the logbook status field. Every status change goes
// through one of its methods; each successful transition commits exactly one
// audit entry in the same transaction, so a transition without its audit row
// cannot exist.
type WorkflowService struct {
	db *gorm.DB
}

func NewWorkflowService(db *gorm.DB) *WorkflowService {
	return &WorkflowService{db: db}
}

// CreateLogbook opens a draft logbook for the week containing weekDate.
// The (owner, week) pair is unique; a second create for the same week fails
// with ErrConflict.
func (s *WorkflowService) CreateLogbook(ownerID int, weekDate time.Time) (*models.Logbook, error) {
	weekStart := utils.WeekStart(weekDate)

	var existing models.Logbook
	err := s.db.Where("owner_id = ? AND week_start_date = ?", ownerID, weekStart).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	lb := models.Logbook{
		OwnerID:       ownerID,
		WeekStartDate: weekStart,
		WeekEndDate:   utils.WeekEnd(weekStart),
		Status:        models.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.Create(&lb).Error; err != nil {
		// Two concurrent creates can both pass the existence check; the
		// uq_owner_week index catches the loser.
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &lb, nil
}

// GetLogbook loads a logbook with its derived audit count.
func (s *WorkflowService) GetLogbook(logbookID int) (*models.Logbook, error) {
	var lb models.Logbook
	if err := s.db.Where("logbook_id = ?", logbookID).First(&lb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&models.AuditEntry{}).
		Where("logbook_id = ?", lb.LogbookID).
		Count(&lb.AuditLogCount).Error; err != nil {
		return nil, err
	}
	return &lb, nil
}

// Submit moves a logbook into the supervisor's queue. The first submission
// stamps submitted_at and clears any prior supervisor comments; later ones
// stamp resubmitted_at so the work-queue filter can re-surface reviewed
// logbooks that changed afterwards.
func (s *WorkflowService) Submit(logbookID int, actor Actor) (*models.Logbook, error) {
	lb, err := s.loadOwned(logbookID, actor)
	if err != nil {
		return nil, err
	}

	to, err := PlanTransition(lb.Status, EventSubmit, actor.Role, "")
	if err != nil {
		return nil, err
	}

	var entryCount int64
	if err := s.db.Model(&models.LogbookEntry{}).
		Where("logbook_id = ?", lb.LogbookID).
		Count(&entryCount).Error; err != nil {
		return nil, err
	}
	if entryCount == 0 {
		return nil, ErrEmptyLogbook
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if lb.FirstSubmission() {
		updates["submitted_at"] = now
		updates["supervisor_comments"] = nil
	} else {
		updates["resubmitted_at"] = now
	}

	from := lb.Status
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := applyStatusUpdate(tx, lb, updates); err != nil {
			return err
		}
		return writeAudit(tx, lb.LogbookID, actor, EventSubmit, from, to, nil)
	})
	if err != nil {
		return nil, err
	}

	lb.Status = to
	lb.UpdatedAt = now
	if lb.SubmittedAt == nil {
		lb.SubmittedAt = &now
		lb.SupervisorComments = nil
	} else {
		lb.ResubmittedAt = &now
	}
	return lb, nil
}

// MarkReady stages a draft for submission without entering the queue.
func (s *WorkflowService) MarkReady(logbookID int, actor Actor) (*models.Logbook, error) {
	lb, err := s.loadOwned(logbookID, actor)
	if err != nil {
		return nil, err
	}

	to, err := PlanTransition(lb.Status, EventMarkReady, actor.Role, "")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := lb.Status
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := applyStatusUpdate(tx, lb, map[string]interface{}{
			"status":     to,
			"updated_at": now,
		}); err != nil {
			return err
		}
		return writeAudit(tx, lb.LogbookID, actor, EventMarkReady, from, to, nil)
	})
	if err != nil {
		return nil, err
	}

	lb.Status = to
	lb.UpdatedAt = now
	return lb, nil
}

// Review applies a supervisor decision to a submitted logbook. Reject and
// return-for-edits require a reason, which is stored on the logbook, written
// to the audit log, and mirrored as a system message in the general comment
// thread so it is visible in both the structured history and the
// conversation.
func (s *WorkflowService) Review(logbookID int, actor Actor, event Event, generalComment string, entryComments []EntryComment) (*models.Logbook, error) {
	if event != EventApprove && event != EventReject && event != EventReturnForEdits {
		return nil, ErrInvalidTransition
	}

	var lb models.Logbook
	if err := s.db.Where("logbook_id = ?", logbookID).First(&lb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reason := strings.TrimSpace(generalComment)
	to, err := PlanTransition(lb.Status, event, actor.Role, reason)
	if err != nil {
		return nil, err
	}

	// Per-entry remarks carry an entry-thread scope key; reject malformed
	// ones up front rather than persisting a thread no scope resolves to.
	for _, ec := range entryComments {
		if strings.TrimSpace(ec.Message) == "" {
			continue
		}
		if err := validateScope(models.ThreadEntry, ec.EntryID, ec.Section); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      to,
		"reviewed_at": now,
		"reviewed_by": actor.UserID,
		"updated_at":  now,
	}
	lockEntries := false
	switch event {
	case EventApprove:
		updates["is_locked"] = true
		lockEntries = true
	case EventReject, EventReturnForEdits:
		updates["supervisor_comments"] = reason
		updates["is_locked"] = false
	}

	from := lb.Status
	var auditReason *string
	if reason != "" {
		auditReason = &reason
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := applyStatusUpdate(tx, &lb, updates); err != nil {
			return err
		}

		if err := tx.Model(&models.LogbookEntry{}).
			Where("logbook_id = ?", lb.LogbookID).
			Updates(map[string]interface{}{"is_locked": lockEntries, "updated_at": now}).Error; err != nil {
			return err
		}

		if err := writeAudit(tx, lb.LogbookID, actor, event, from, to, auditReason); err != nil {
			return err
		}

		// Mirror the decision reason into the general thread as a system
		// message so the trainee sees it in the conversation.
		if event == EventReject || event == EventReturnForEdits {
			if err := appendThreadMessage(tx, lb.LogbookID, models.ThreadGeneral, 0, "", models.CommentMessage{
				AuthorID:   actor.UserID,
				AuthorRole: models.RoleSystem,
				Message:    reason,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}

		for _, ec := range entryComments {
			msg := strings.TrimSpace(ec.Message)
			if msg == "" {
				continue
			}
			if err := appendThreadMessage(tx, lb.LogbookID, models.ThreadEntry, ec.EntryID, ec.Section, models.CommentMessage{
				AuthorID:   actor.UserID,
				AuthorRole: actor.Role,
				Message:    msg,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lb.Status = to
	lb.ReviewedAt = &now
	lb.ReviewedBy = &actor.UserID
	lb.UpdatedAt = now
	switch event {
	case EventApprove:
		lb.IsLocked = true
	case EventReject, EventReturnForEdits:
		lb.SupervisorComments = &reason
		lb.IsLocked = false
	}
	return &lb, nil
}

// Regenerate rebuilds the cached weekly total from the entry rows. Status is
// preserved; the rebuild is still audited so the history stays complete.
func (s *WorkflowService) Regenerate(logbookID int, actor Actor) (*models.Logbook, error) {
	lb, err := s.loadOwned(logbookID, actor)
	if err != nil {
		return nil, err
	}

	if _, err := PlanTransition(lb.Status, EventRegenerate, actor.Role, ""); err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.LogbookEntry{}).
		Where("logbook_id = ?", lb.LogbookID).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := applyStatusUpdate(tx, lb, map[string]interface{}{
			"total_minutes": total,
			"regenerated":   true,
			"updated_at":    now,
		}); err != nil {
			return err
		}
		return writeAudit(tx, lb.LogbookID, actor, EventRegenerate, lb.Status, lb.Status, nil)
	})
	if err != nil {
		return nil, err
	}

	lb.TotalMinutes = int(total)
	lb.Regenerated = true
	lb.UpdatedAt = now
	return lb, nil
}

// AuditTrail returns the full transition history, oldest first.
func (s *WorkflowService) AuditTrail(logbookID int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := s.db.Where("logbook_id = ?", logbookID).
		Order("created_at ASC, audit_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// loadOwned fetches a logbook and enforces that trainee actors only touch
// their own records.
func (s *WorkflowService) loadOwned(logbookID int, actor Actor) (*models.Logbook, error) {
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
	return &lb, nil
}

// applyStatusUpdate performs the optimistic-concurrency write: the UPDATE
// carries the loaded status as a precondition, so a concurrent transition
// makes RowsAffected zero and the operation fails with ErrStaleState instead
// of silently overwriting.
func applyStatusUpdate(tx *gorm.DB, lb *models.Logbook, updates map[string]interface{}) error {
	res := tx.Model(&models.Logbook{}).
		Where("logbook_id = ? AND status = ?", lb.LogbookID, lb.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// writeAudit appends the immutable transition record. A failure here aborts
// the enclosing transaction: a transition is not committed unless its audit
// entry is.
func writeAudit(tx *gorm.DB, logbookID int, actor Actor, event Event, from, to models.LogbookStatus, reason *string) error {
	entry := models.AuditEntry{
		LogbookID:  logbookID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     string(event),
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	if actor.IPAddress != "" {
		ip := actor.IPAddress
		entry.IPAddress = &ip
	}
	if ua := strings.TrimSpace(actor.UserAgent); ua != "" {
		entry.UserAgent = &ua
	}
	return tx.Create(&entry).Error
}
