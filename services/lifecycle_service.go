package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"residency-application-api/models"
)

// allowedTransitions is the full status machine. No transition skips states.
var allowedTransitions = map[models.ApplicationStatus]models.ApplicationStatus{
	models.StatusDraft:     models.StatusSubmitted,
	models.StatusSubmitted: models.StatusInReview,
	models.StatusInReview:  models.StatusReviewed,
	models.StatusReviewed:  models.StatusCompleted,
}

// forUpdate adds a row-locking clause on dialects that support it. The sqlite
// test dialect has no FOR UPDATE syntax; its single-connection pool serializes
// transactions instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LifecycleService validates and executes status transitions and enforces the
// one-in-flight-review invariant per owner.
type LifecycleService struct {
	db       *gorm.DB
	logger   *zap.Logger
	notifier *Notifier
}

func NewLifecycleService(db *gorm.DB, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{db: db, logger: logger}
}

// SetNotifier attaches the optional status-change mail notifier.
func (s *LifecycleService) SetNotifier(n *Notifier) {
	s.notifier = n
}

// CreateDraft creates a new draft application for the owner.
func (s *LifecycleService) CreateDraft(ctx context.Context, ownerID string, packageType models.PackageType) (*models.Application, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	if !models.IsValidPackageType(packageType) {
		return nil, errors.New("invalid package type")
	}

	now := time.Now()
	application := models.Application{
		ApplicationID: uuid.New().String(),
		OwnerID:       ownerID,
		Status:        models.StatusDraft,
		PackageType:   packageType,
		RowVersion:    1,
		CreateAt:      &now,
		UpdateAt:      &now,
	}

	if err := s.db.WithContext(ctx).Create(&application).Error; err != nil {
		return nil, &StorageError{Op: "create draft", Err: err}
	}

	s.logger.Info("draft created",
		zap.String("application_id", application.ApplicationID),
		zap.String("owner_id", ownerID))
	return &application, nil
}

// GetApplication loads a single application with its experiences and latest
// document metadata. ownerID scopes the lookup; pass "" for staff access.
func (s *LifecycleService) GetApplication(ctx context.Context, applicationID, ownerID string) (*models.Application, error) {
	var application models.Application
	query := s.db.WithContext(ctx).
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("version ASC") }).
		Where("application_id = ? AND delete_at IS NULL", applicationID)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	if err := query.First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, &StorageError{Op: "get application", Err: err}
	}
	return &application, nil
}

// ListApplications returns applications for the owner, or all applications
// when ownerID is empty. Listing reads are unsynchronized.
func (s *LifecycleService) ListApplications(ctx context.Context, ownerID string, status models.ApplicationStatus) ([]models.Application, error) {
	var applications []models.Application
	query := s.db.WithContext(ctx).Where("delete_at IS NULL")
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("create_at DESC").Find(&applications).Error; err != nil {
		return nil, &StorageError{Op: "list applications", Err: err}
	}
	return applications, nil
}

// UpdateDraftInput carries the owner-editable fields. Nil fields are left
// untouched; a non-nil Experiences slice replaces the list wholesale.
type UpdateDraftInput struct {
	PersonalStatement *string
	Experiences       []ExperienceInput
	ExpectedVersion   int
}

// UpdateDraft amends a draft application. Only the owner may call it and only
// while the status is draft. The expected row version guards against lost
// updates from a second session.
func (s *LifecycleService) UpdateDraft(ctx context.Context, applicationID, ownerID string, input UpdateDraftInput) (*models.Application, error) {
	if input.Experiences != nil {
		if err := ValidateExperiences(input.Experiences); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Where("application_id = ? AND owner_id = ? AND delete_at IS NULL", applicationID, ownerID).
			First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return &StorageError{Op: "load draft", Err: err}
		}

		if application.Status != models.StatusDraft {
			return &InvalidStateError{Status: application.Status, Operation: "update draft"}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"row_version": application.RowVersion + 1,
			"update_at":   now,
		}
		if input.PersonalStatement != nil {
			updates["personal_statement"] = *input.PersonalStatement
		}

		// Guarded update: row_version must still match what the caller read.
		result := tx.Model(&models.Application{}).
			Where("application_id = ? AND row_version = ?", applicationID, input.ExpectedVersion).
			Updates(updates)
		if result.Error != nil {
			return &StorageError{Op: "update draft", Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return &StaleVersionError{ApplicationID: applicationID, ExpectedVersion: input.ExpectedVersion}
		}

		if input.Experiences != nil {
			if err := replaceExperiences(tx, applicationID, input.Experiences, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetApplication(ctx, applicationID, ownerID)
}

// Submit moves a draft to submitted. It requires a non-empty personal
// statement or at least one uploaded document, and fails with ConflictError
// if the owner already has a submitted or in-review application.
func (s *LifecycleService) Submit(ctx context.Context, applicationID, ownerID string) (*models.Application, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Where("application_id = ? AND owner_id = ? AND delete_at IS NULL", applicationID, ownerID).
			First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return &StorageError{Op: "load application", Err: err}
		}

		if application.Status != models.StatusDraft {
			return &InvalidTransitionError{From: application.Status, To: models.StatusSubmitted}
		}

		if strings.TrimSpace(application.PersonalStatement) == "" {
			var documentCount int64
			if err := tx.Model(&models.ApplicationDocument{}).
				Where("application_id = ?", applicationID).
				Count(&documentCount).Error; err != nil {
				return &StorageError{Op: "count documents", Err: err}
			}
			if documentCount == 0 {
				return ErrEmptySubmission
			}
		}

		// One non-terminal application per owner at a time. The locking read
		// makes two concurrent submits of different drafts serialize on the
		// owner's index range; the loser then sees the winner's committed row
		// instead of a stale repeatable-read snapshot.
		var existing models.Application
		err := forUpdate(tx).Where("owner_id = ? AND application_id <> ? AND status IN ? AND delete_at IS NULL",
			ownerID, applicationID, []models.ApplicationStatus{models.StatusSubmitted, models.StatusInReview}).
			First(&existing).Error
		if err == nil {
			return &ConflictError{ExistingApplicationID: existing.ApplicationID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &StorageError{Op: "check in-flight applications", Err: err}
		}

		return s.applyTransition(tx, &application, models.StatusSubmitted, ownerID, nil)
	})
	if err != nil {
		return nil, err
	}

	application, getErr := s.GetApplication(ctx, applicationID, ownerID)
	if getErr != nil {
		return nil, getErr
	}
	s.notifyStatusChange(application)
	return application, nil
}

// TransitionInput carries the staff-supplied transition parameters.
type TransitionInput struct {
	Target models.ApplicationStatus
	Reason *string

	// NoChangesNeeded acknowledges that the review produced no edits,
	// allowing in_review -> reviewed without an edit record.
	NoChangesNeeded bool
}

// TransitionStatus executes a staff-initiated transition. A no-op transition
// (target equals current status) is rejected as invalid.
func (s *LifecycleService) TransitionStatus(ctx context.Context, applicationID, actorID string, input TransitionInput) (*models.Application, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Where("application_id = ? AND delete_at IS NULL", applicationID).
			First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return &StorageError{Op: "load application", Err: err}
		}

		if allowedTransitions[application.Status] != input.Target {
			return &InvalidTransitionError{From: application.Status, To: input.Target}
		}

		if application.Status == models.StatusInReview && input.Target == models.StatusReviewed && !input.NoChangesNeeded {
			var editCount int64
			if err := tx.Model(&models.EditRecord{}).
				Where("application_id = ?", applicationID).
				Count(&editCount).Error; err != nil {
				return &StorageError{Op: "count edit records", Err: err}
			}
			if editCount == 0 {
				return ErrEditRecordRequired
			}
		}

		return s.applyTransition(tx, &application, input.Target, actorID, input.Reason)
	})
	if err != nil {
		return nil, err
	}

	application, getErr := s.GetApplication(ctx, applicationID, "")
	if getErr != nil {
		return nil, getErr
	}
	s.notifyStatusChange(application)
	return application, nil
}

// applyTransition performs the status check-and-set and writes the history
// row. The WHERE on the current status makes two racing transitions resolve
// to exactly one winner; the loser sees zero rows affected.
func (s *LifecycleService) applyTransition(tx *gorm.DB, application *models.Application, target models.ApplicationStatus, actorID string, reason *string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":    target,
		"update_at": now,
	}
	switch target {
	case models.StatusSubmitted:
		updates["submitted_at"] = now
	case models.StatusReviewed:
		updates["reviewed_at"] = now
	case models.StatusCompleted:
		updates["completed_at"] = now
	}

	result := tx.Model(&models.Application{}).
		Where("application_id = ? AND status = ?", application.ApplicationID, application.Status).
		Updates(updates)
	if result.Error != nil {
		return &StorageError{Op: "update status", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &InvalidTransitionError{From: application.Status, To: target}
	}

	history := models.ApplicationStatusHistory{
		HistoryID:     uuid.New().String(),
		ApplicationID: application.ApplicationID,
		OldStatus:     application.Status,
		NewStatus:     target,
		ChangedBy:     actorID,
		Reason:        reason,
		CreatedAt:     now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return &StorageError{Op: "record status history", Err: err}
	}

	s.logger.Info("status transition",
		zap.String("application_id", application.ApplicationID),
		zap.String("from", string(application.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actorID))
	return nil
}

// Delete soft-deletes an application. Permitted only in draft or completed.
func (s *LifecycleService) Delete(ctx context.Context, applicationID, ownerID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Where("application_id = ? AND owner_id = ? AND delete_at IS NULL", applicationID, ownerID).
			First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return &StorageError{Op: "load application", Err: err}
		}

		if application.Status != models.StatusDraft && application.Status != models.StatusCompleted {
			return &InvalidStateError{Status: application.Status, Operation: "delete"}
		}

		now := time.Now()
		result := tx.Model(&models.Application{}).
			Where("application_id = ? AND status = ? AND delete_at IS NULL", applicationID, application.Status).
			Updates(map[string]interface{}{"delete_at": now, "update_at": now})
		if result.Error != nil {
			return &StorageError{Op: "delete application", Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return &InvalidStateError{Status: application.Status, Operation: "delete"}
		}

		s.logger.Info("application deleted",
			zap.String("application_id", applicationID),
			zap.String("owner_id", ownerID))
		return nil
	})
}

// StatusHistory returns the transition audit trail, oldest first.
func (s *LifecycleService) StatusHistory(ctx context.Context, applicationID string) ([]models.ApplicationStatusHistory, error) {
	var history []models.ApplicationStatusHistory
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, &StorageError{Op: "load status history", Err: err}
	}
	return history, nil
}

// CountByStatus returns application counts per status for the dashboard.
// ownerID scopes the counts; pass "" for staff totals.
func (s *LifecycleService) CountByStatus(ctx context.Context, ownerID string) (map[models.ApplicationStatus]int64, error) {
	type row struct {
		Status models.ApplicationStatus
		Total  int64
	}
	var rows []row
	query := s.db.WithContext(ctx).Model(&models.Application{}).
		Select("status, COUNT(*) as total").
		Where("delete_at IS NULL").
		Group("status")
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "count applications", Err: err}
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (s *LifecycleService) notifyStatusChange(application *models.Application) {
	if s.notifier == nil || application == nil {
		return
	}
	s.notifier.StatusChanged(application)
}
