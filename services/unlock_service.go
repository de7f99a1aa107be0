package services

import (
	"errors"
	"time"

	"logbook-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// systemActor stamps audit rows for transitions no human triggered, such as
// an unlock window expiring.
var systemActor = Actor{UserID: 0, Role: models.RoleSystem}

// UnlockService runs the secondary workflow that reopens a locked or
// approved logbook for a bounded time window. Expiry has no timer: it is
// detected lazily whenever a logbook is read, always through
// EffectiveStatus.
type UnlockService struct {
	db *gorm.DB
}

func NewUnlockService(db *gorm.DB) *UnlockService {
	return &UnlockService{db: db}
}

// Request opens an unlock request on a locked/approved logbook. At most one
// pending or unexpired-approved request may exist per logbook.
func (s *UnlockService) Request(logbookID int, actor Actor, durationMinutes int, reason string) (*models.UnlockRequest, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
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

	now := time.Now()
	status, err := s.EffectiveStatus(&lb, now)
	if err != nil {
		return nil, err
	}
	// unlocked_for_edits means an approved window is already open, which is
	// an active-request conflict, not an illegal transition.
	if status == models.StatusUnlockedForEdits {
		return nil, ErrConflict
	}
	if _, err := PlanTransition(status, EventRequestUnlock, actor.Role, ""); err != nil {
		return nil, err
	}

	var existing []models.UnlockRequest
	if err := s.db.Where("logbook_id = ? AND decision IN ?", lb.LogbookID,
		[]string{models.UnlockPending, models.UnlockApproved}).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].ActiveAt(now) {
			return nil, ErrConflict
		}
	}

	req := models.UnlockRequest{
		RequestID:       uuid.NewString(),
		LogbookID:       lb.LogbookID,
		RequestedBy:     actor.UserID,
		RequestedAt:     now,
		DurationMinutes: durationMinutes,
		Decision:        models.UnlockPending,
	}
	if reason != "" {
		req.Reason = &reason
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Logbook{}).
			Where("logbook_id = ?", lb.LogbookID).
			Updates(map[string]interface{}{"active_unlock_id": req.UnlockID, "updated_at": now}).Error; err != nil {
			return err
		}
		// Status is unchanged; the request itself is still audited.
		return writeAudit(tx, lb.LogbookID, actor, EventRequestUnlock, status, status, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Decide resolves a pending unlock request. Approval opens the edit window
// (expires_at = now + duration) and moves the logbook to unlocked_for_edits;
// denial leaves the status untouched. Both outcomes are audited.
func (s *UnlockService) Decide(requestID string, actor Actor, approve bool, durationMinutes *int, reason string) (*models.Logbook, error) {
	var req models.UnlockRequest
	if err := s.db.Where("request_id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Decision != models.UnlockPending {
		return nil, ErrConflict
	}

	var lb models.Logbook
	if err := s.db.Where("logbook_id = ?", req.LogbookID).First(&lb).Error; err != nil {
		return nil, err
	}

	event := EventUnlockDeny
	if approve {
		event = EventUnlockApprove
	}
	to, err := PlanTransition(lb.Status, event, actor.Role, reason)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	duration := req.DurationMinutes
	if durationMinutes != nil && *durationMinutes > 0 {
		duration = *durationMinutes
	}

	var auditReason *string
	if reason != "" {
		auditReason = &reason
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		reqUpdates := map[string]interface{}{
			"decided_by": actor.UserID,
			"decided_at": now,
		}
		lbUpdates := map[string]interface{}{
			"updated_at": now,
		}

		if approve {
			expires := now.Add(time.Duration(duration) * time.Minute)
			reqUpdates["decision"] = models.UnlockApproved
			reqUpdates["duration_minutes"] = duration
			reqUpdates["expires_at"] = expires
			lbUpdates["status"] = to
			lbUpdates["is_locked"] = false
			req.ExpiresAt = &expires
			req.Decision = models.UnlockApproved
		} else {
			reqUpdates["decision"] = models.UnlockDenied
			lbUpdates["active_unlock_id"] = nil
			req.Decision = models.UnlockDenied
		}

		if err := tx.Model(&models.UnlockRequest{}).
			Where("unlock_id = ? AND decision = ?", req.UnlockID, models.UnlockPending).
			Updates(reqUpdates).Error; err != nil {
			return err
		}

		if err := applyStatusUpdate(tx, &lb, lbUpdates); err != nil {
			return err
		}

		if approve {
			// Reopen the entries for the window.
			if err := tx.Model(&models.LogbookEntry{}).
				Where("logbook_id = ?", lb.LogbookID).
				Updates(map[string]interface{}{"is_locked": false, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		return writeAudit(tx, lb.LogbookID, actor, event, lb.Status, to, auditReason)
	})
	if err != nil {
		return nil, err
	}

	lb.Status = to
	lb.UpdatedAt = now
	if approve {
		lb.IsLocked = false
	} else {
		lb.ActiveUnlockID = nil
	}
	return &lb, nil
}

// EffectiveStatus is the single place unlock expiry is evaluated. Any
// component reading a logbook goes through it: when the active unlock's
// window has passed, the logbook is returned to locked (entries re-locked,
// active unlock cleared, transition audited) as a side effect of the read.
// Re-detecting an already-expired unlock is a no-op.
func (s *UnlockService) EffectiveStatus(lb *models.Logbook, now time.Time) (models.LogbookStatus, error) {
	if lb.Status != models.StatusUnlockedForEdits {
		return lb.Status, nil
	}
	if lb.ActiveUnlockID == nil {
		// Inconsistent but recoverable: no window to honor, so re-lock.
		return s.relock(lb, now)
	}

	var req models.UnlockRequest
	if err := s.db.Where("unlock_id = ?", *lb.ActiveUnlockID).First(&req).Error; err != nil {
		return lb.Status, err
	}
	if !req.ExpiredAt(now) {
		return lb.Status, nil
	}
	return s.relock(lb, now)
}

func (s *UnlockService) relock(lb *models.Logbook, now time.Time) (models.LogbookStatus, error) {
	from := lb.Status
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Logbook{}).
			Where("logbook_id = ? AND status = ?", lb.LogbookID, models.StatusUnlockedForEdits).
			Updates(map[string]interface{}{
				"status":           models.StatusLocked,
				"is_locked":        true,
				"active_unlock_id": nil,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another reader already re-locked it; nothing to audit.
			return nil
		}

		if err := tx.Model(&models.LogbookEntry{}).
			Where("logbook_id = ?", lb.LogbookID).
			Updates(map[string]interface{}{"is_locked": true, "updated_at": now}).Error; err != nil {
			return err
		}

		return writeAudit(tx, lb.LogbookID, systemActor, EventUnlockExpire, from, models.StatusLocked, nil)
	})
	if err != nil {
		return lb.Status, err
	}

	lb.Status = models.StatusLocked
	lb.IsLocked = true
	lb.ActiveUnlockID = nil
	lb.ActiveUnlock = nil
	return lb.Status, nil
}

// ListRequests returns a logbook's unlock history, newest first.
func (s *UnlockService) ListRequests(logbookID int) ([]models.UnlockRequest, error) {
	var reqs []models.UnlockRequest
	if err := s.db.Where("logbook_id = ?", logbookID).
		Order("requested_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
