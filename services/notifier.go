package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"residency-application-api/config"
	"residency-application-api/models"
)

var statusSubjects = map[models.ApplicationStatus]string{
	models.StatusSubmitted: "We received your application materials",
	models.StatusInReview:  "Your materials are now with our editors",
	models.StatusReviewed:  "Your edited materials are ready",
	models.StatusCompleted: "Your editing package is complete",
}

// Notifier sends best-effort status-change mail to the owner. Failures are
// logged and never surfaced to the caller; delivery guarantees belong to the
// mail provider, not this core.
type Notifier struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewNotifier(db *gorm.DB, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{db: db, logger: logger}
}

// StatusChanged emails the owner about the new status in the background.
func (n *Notifier) StatusChanged(application *models.Application) {
	subject, ok := statusSubjects[application.Status]
	if !ok {
		return
	}

	go func() {
		var owner models.User
		if err := n.db.Where("user_id = ? AND delete_at IS NULL", application.OwnerID).
			First(&owner).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				n.logger.Warn("notification owner lookup failed", zap.Error(err))
			}
			return
		}

		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your application <strong>%s</strong> is now <strong>%s</strong>.</p>",
			owner.UserFname, application.ApplicationID, application.Status)

		if err := config.SendMail([]string{owner.Email}, subject, body); err != nil {
			n.logger.Warn("status notification failed",
				zap.String("application_id", application.ApplicationID),
				zap.Error(err))
		}
	}()
}
