package services

import (
	"fmt"
	"log"
	"time"

	"logbook-api/config"
	"logbook-api/models"

	"gorm.io/gorm"
)

// NotificationService records in-app notifications and sends the matching
// email. Delivery failures are logged and swallowed: by the time a
// notification fires, the workflow transition has already committed, and the
// audit log is the only side effect allowed to abort one.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify writes the notification row and mails the recipient.
func (s *NotificationService) Notify(userID int, logbookID int, kind, title, message string) {
	now := time.Now()
	n := models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		Type:             kind,
		RelatedLogbookID: &logbookID,
		CreatedAt:        now,
	}
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("failed to store notification for user %d: %v", userID, err)
		return
	}

	var user models.User
	if err := s.db.Where("user_id = ? AND deleted_at IS NULL", userID).First(&user).Error; err != nil {
		log.Printf("failed to load notification recipient %d: %v", userID, err)
		return
	}
	body := fmt.Sprintf("<p>%s</p><p>%s</p>", title, message)
	if err := config.SendMail([]string{user.Email}, title, body); err != nil {
		log.Printf("failed to send notification mail to %s: %v", user.Email, err)
	}
}

// NotifyDecision tells the logbook owner about a review or unlock decision.
func (s *NotificationService) NotifyDecision(lb *models.Logbook, event Event, reason string) {
	var title, kind string
	switch event {
	case EventApprove:
		title, kind = "Logbook approved", "success"
	case EventReject:
		title, kind = "Logbook rejected", "error"
	case EventReturnForEdits:
		title, kind = "Logbook returned for edits", "warning"
	case EventUnlockApprove:
		title, kind = "Unlock request approved", "success"
	case EventUnlockDeny:
		title, kind = "Unlock request denied", "warning"
	default:
		return
	}

	s.Notify(lb.OwnerID, lb.LogbookID, kind, title, decisionMessage(lb.WeekStartDate, title, reason))
}

// decisionMessage builds the user-facing text for a decision notification.
func decisionMessage(weekStart time.Time, title, reason string) string {
	message := fmt.Sprintf("Your logbook for the week of %s: %s",
		weekStart.Format("2006-01-02"), title)
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return message
}

// NotifySubmission tells the trainee's supervisor a logbook landed in the
// review queue.
func (s *NotificationService) NotifySubmission(lb *models.Logbook) {
	var owner models.User
	if err := s.db.Where("user_id = ?", lb.OwnerID).First(&owner).Error; err != nil {
		log.Printf("failed to load logbook owner %d: %v", lb.OwnerID, err)
		return
	}
	if owner.SupervisorID == nil {
		return
	}

	title := "Logbook submitted for review"
	message := fmt.Sprintf("%s %s submitted the logbook for the week of %s.",
		owner.FirstName, owner.LastName, lb.WeekStartDate.Format("2006-01-02"))
	s.Notify(*owner.SupervisorID, lb.LogbookID, "info", title, message)
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(userID int) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (s *NotificationService) MarkRead(notificationID, userID int) error {
	now := time.Now()
	res := s.db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
