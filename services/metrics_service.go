package services

import (
	"time"

	"logbook-api/models"
	"logbook-api/utils"

	"gorm.io/gorm"
)

// LogbookStats is the dashboard summary derived from a set of logbooks. All
// values are recomputed on read; nothing here is persisted.
type LogbookStats struct {
	Total            int        `json:"total"`
	Draft            int        `json:"draft"`
	Submitted        int        `json:"submitted"`
	ReturnedForEdits int        `json:"returned_for_edits"`
	Rejected         int        `json:"rejected"`
	Approved         int        `json:"approved"`
	Overdue          int        `json:"overdue"`
	NextDueDate      *time.Time `json:"next_due_date,omitempty"`
}

// AggregateStats folds a slice of logbooks into dashboard counts. It is a
// pure function of (today, graceDays, logbooks) so the summary card, the
// detail view and batch reports cannot disagree.
func AggregateStats(today time.Time, graceDays int, logbooks []models.Logbook) LogbookStats {
	stats := LogbookStats{Total: len(logbooks)}
	weekStarts := make([]time.Time, 0, len(logbooks))

	for i := range logbooks {
		lb := &logbooks[i]
		weekStarts = append(weekStarts, lb.WeekStartDate)

		switch lb.Status {
		case models.StatusDraft, models.StatusReady:
			stats.Draft++
		case models.StatusSubmitted:
			stats.Submitted++
		case models.StatusReturnedForEdits:
			stats.ReturnedForEdits++
		case models.StatusRejected:
			stats.Rejected++
		case models.StatusApproved, models.StatusLocked, models.StatusUnlockedForEdits:
			stats.Approved++
		}

		if utils.IsOverdue(today, lb.WeekStartDate, graceDays, string(lb.Status)) {
			stats.Overdue++
		}
	}

	next := utils.NextDueDate(today, weekStarts, graceDays)
	stats.NextDueDate = &next
	return stats
}

// MetricsService reads logbook collections and derives dashboard numbers.
// It never mutates workflow state except through the unlock service's lazy
// expiry check, which is part of reading.
type MetricsService struct {
	db     *gorm.DB
	unlock *UnlockService
}

func NewMetricsService(db *gorm.DB, unlock *UnlockService) *MetricsService {
	return &MetricsService{db: db, unlock: unlock}
}

// TraineeStats summarizes one trainee's logbooks.
func (s *MetricsService) TraineeStats(ownerID int) (*LogbookStats, error) {
	var logbooks []models.Logbook
	if err := s.db.Where("owner_id = ?", ownerID).Find(&logbooks).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range logbooks {
		// Reading for metrics still honors lazy unlock expiry.
		if _, err := s.unlock.EffectiveStatus(&logbooks[i], now); err != nil {
			return nil, err
		}
	}

	graceDays := models.GetSubmissionDeadlineDays(s.db)
	stats := AggregateStats(now, graceDays, logbooks)
	return &stats, nil
}

// SupervisorQueue summarizes the review workload: submitted logbooks
// awaiting a decision, and reviewed logbooks that were resubmitted since the
// last decision and need another look.
type SupervisorQueue struct {
	PendingReview int `json:"pending_review"`
	Resubmitted   int `json:"resubmitted"`
	ApprovedTotal int `json:"approved_total"`
}

// SupervisorStats builds the work queue for a reviewer's trainees.
func (s *MetricsService) SupervisorStats(supervisorID int) (*SupervisorQueue, error) {
	var queue SupervisorQueue

	traineeIDs := s.db.Model(&models.User{}).
		Select("user_id").
		Where("supervisor_id = ? AND deleted_at IS NULL", supervisorID)

	var pending int64
	if err := s.db.Model(&models.Logbook{}).
		Where("owner_id IN (?) AND status = ?", traineeIDs, models.StatusSubmitted).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	queue.PendingReview = int(pending)

	var resubmitted int64
	if err := s.db.Model(&models.Logbook{}).
		Where("owner_id IN (?) AND status = ? AND resubmitted_at IS NOT NULL AND resubmitted_at > reviewed_at",
			traineeIDs, models.StatusSubmitted).
		Count(&resubmitted).Error; err != nil {
		return nil, err
	}
	queue.Resubmitted = int(resubmitted)

	var approved int64
	if err := s.db.Model(&models.Logbook{}).
		Where("owner_id IN (?) AND status IN ?", traineeIDs,
			[]models.LogbookStatus{models.StatusApproved, models.StatusLocked}).
		Count(&approved).Error; err != nil {
		return nil, err
	}
	queue.ApprovedTotal = int(approved)

	return &queue, nil
}
