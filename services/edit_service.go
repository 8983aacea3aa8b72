package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"residency-application-api/models"
)

// EditService applies staff edits to the personal statement and experiences,
// recording provenance, and manages owner edit requests.
type EditService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewEditService(db *gorm.DB, logger *zap.Logger) *EditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{db: db, logger: logger}
}

// ExperienceInput is one entry of a wholesale experience-list replacement.
type ExperienceInput struct {
	Title                 string     `json:"title" binding:"required"`
	Organization          string     `json:"organization" binding:"required"`
	Description           string     `json:"description"`
	IsMostMeaningful      bool       `json:"is_most_meaningful"`
	MeaningfulDescription *string    `json:"meaningful_description"`
	StartDate             time.Time  `json:"start_date" binding:"required"`
	EndDate               *time.Time `json:"end_date"`
}

// ValidateExperiences enforces the boundary rules before any row is written.
func ValidateExperiences(inputs []ExperienceInput) error {
	for i, input := range inputs {
		if strings.TrimSpace(input.Title) == "" {
			return fmt.Errorf("experience %d: title is required", i+1)
		}
		if strings.TrimSpace(input.Organization) == "" {
			return fmt.Errorf("experience %d: organization is required", i+1)
		}
		if len(input.Description) > models.ExperienceDescriptionMax {
			return fmt.Errorf("experience %d: description exceeds %d characters", i+1, models.ExperienceDescriptionMax)
		}
		if input.IsMostMeaningful {
			if input.MeaningfulDescription == nil || strings.TrimSpace(*input.MeaningfulDescription) == "" {
				return fmt.Errorf("experience %d: meaningful description is required when flagged most meaningful", i+1)
			}
			if len(*input.MeaningfulDescription) > models.MeaningfulDescriptionMax {
				return fmt.Errorf("experience %d: meaningful description exceeds %d characters", i+1, models.MeaningfulDescriptionMax)
			}
		} else if input.MeaningfulDescription != nil {
			return fmt.Errorf("experience %d: meaningful description is only allowed on the most meaningful entry", i+1)
		}
		if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
			return fmt.Errorf("experience %d: end date precedes start date", i+1)
		}
	}
	return nil
}

// replaceExperiences swaps the application's experience list wholesale. The
// insertion order becomes the display order.
func replaceExperiences(tx *gorm.DB, applicationID string, inputs []ExperienceInput, now time.Time) error {
	if err := tx.Where("application_id = ?", applicationID).
		Delete(&models.Experience{}).Error; err != nil {
		return &StorageError{Op: "clear experiences", Err: err}
	}

	for order, input := range inputs {
		experience := models.Experience{
			ExperienceID:          uuid.New().String(),
			ApplicationID:         applicationID,
			Title:                 input.Title,
			Organization:          input.Organization,
			Description:           input.Description,
			IsMostMeaningful:      input.IsMostMeaningful,
			MeaningfulDescription: input.MeaningfulDescription,
			StartDate:             input.StartDate,
			EndDate:               input.EndDate,
			DisplayOrder:          order,
			CreateAt:              &now,
			UpdateAt:              &now,
		}
		if err := tx.Create(&experience).Error; err != nil {
			return &StorageError{Op: "insert experience", Err: err}
		}
	}
	return nil
}

// EditInput carries a staff edit. Nil fields are untouched; a non-nil
// Experiences slice replaces the list wholesale.
type EditInput struct {
	PersonalStatement *string
	Experiences       []ExperienceInput
	EditSummary       string
	ExpectedVersion   int
}

// ApplyEdit commits a staff edit while the application is submitted or in
// review. It replaces supplied fields, appends one EditRecord, and does not
// change status. The expected row version guards against a second editor
// overwriting unseen changes.
func (s *EditService) ApplyEdit(ctx context.Context, applicationID, editorID string, input EditInput) (*models.Application, error) {
	if strings.TrimSpace(input.EditSummary) == "" {
		return nil, ErrEmptyEditSummary
	}
	if input.PersonalStatement == nil && input.Experiences == nil {
		return nil, errors.New("edit must change at least one field")
	}
	if input.Experiences != nil {
		if err := ValidateExperiences(input.Experiences); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Where("application_id = ? AND delete_at IS NULL", applicationID).
			First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return &StorageError{Op: "load application", Err: err}
		}

		if application.Status != models.StatusSubmitted && application.Status != models.StatusInReview {
			return &InvalidStateError{Status: application.Status, Operation: "apply edit"}
		}

		now := time.Now()
		editedFields := make([]string, 0, 2)
		updates := map[string]interface{}{
			"row_version": application.RowVersion + 1,
			"update_at":   now,
		}
		if input.PersonalStatement != nil {
			updates["personal_statement"] = *input.PersonalStatement
			editedFields = append(editedFields, "personal_statement")
		}
		if input.Experiences != nil {
			editedFields = append(editedFields, "experiences")
		}

		result := tx.Model(&models.Application{}).
			Where("application_id = ? AND row_version = ?", applicationID, input.ExpectedVersion).
			Updates(updates)
		if result.Error != nil {
			return &StorageError{Op: "apply edit", Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return &StaleVersionError{ApplicationID: applicationID, ExpectedVersion: input.ExpectedVersion}
		}

		if input.Experiences != nil {
			if err := replaceExperiences(tx, applicationID, input.Experiences, now); err != nil {
				return err
			}
		}

		record := models.EditRecord{
			EditRecordID:  uuid.New().String(),
			ApplicationID: applicationID,
			EditorID:      editorID,
			EditSummary:   input.EditSummary,
			EditedFields:  strings.Join(editedFields, ","),
			EditedAt:      now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return &StorageError{Op: "record edit", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("edit applied",
		zap.String("application_id", applicationID),
		zap.String("editor_id", editorID))

	var application models.Application
	if err := s.db.WithContext(ctx).
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("application_id = ?", applicationID).
		First(&application).Error; err != nil {
		return nil, &StorageError{Op: "reload application", Err: err}
	}
	return &application, nil
}

// EditRecords returns the staff edit audit trail, oldest first.
func (s *EditService) EditRecords(ctx context.Context, applicationID string) ([]models.EditRecord, error) {
	var records []models.EditRecord
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("edited_at ASC").
		Find(&records).Error; err != nil {
		return nil, &StorageError{Op: "load edit records", Err: err}
	}
	return records, nil
}

// RequestEdit records an owner's revision request against the application.
func (s *EditService) RequestEdit(ctx context.Context, applicationID, ownerID, message string) (*models.EditRequest, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("edit request message is required")
	}

	var application models.Application
	if err := s.db.WithContext(ctx).
		Where("application_id = ? AND owner_id = ? AND delete_at IS NULL", applicationID, ownerID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, &StorageError{Op: "load application", Err: err}
	}
	if application.Status == models.StatusCompleted {
		return nil, &InvalidStateError{Status: application.Status, Operation: "request edit"}
	}

	now := time.Now()
	request := models.EditRequest{
		EditRequestID: uuid.New().String(),
		ApplicationID: applicationID,
		RequestedBy:   ownerID,
		Message:       message,
		Status:        models.EditRequestOpen,
		CreateAt:      &now,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, &StorageError{Op: "create edit request", Err: err}
	}
	return &request, nil
}

// EditRequests lists the application's edit requests, newest first.
func (s *EditService) EditRequests(ctx context.Context, applicationID string) ([]models.EditRequest, error) {
	var requests []models.EditRequest
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("create_at DESC").
		Find(&requests).Error; err != nil {
		return nil, &StorageError{Op: "load edit requests", Err: err}
	}
	return requests, nil
}

// ResolveEditRequest marks an open request as resolved.
func (s *EditService) ResolveEditRequest(ctx context.Context, editRequestID, resolverID string) (*models.EditRequest, error) {
	var request models.EditRequest
	if err := s.db.WithContext(ctx).
		Where("edit_request_id = ?", editRequestID).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEditRequestNotFound
		}
		return nil, &StorageError{Op: "load edit request", Err: err}
	}
	if request.Status == models.EditRequestResolved {
		return &request, nil
	}

	now := time.Now()
	request.Status = models.EditRequestResolved
	request.ResolvedBy = &resolverID
	request.ResolvedAt = &now
	if err := s.db.WithContext(ctx).Save(&request).Error; err != nil {
		return nil, &StorageError{Op: "resolve edit request", Err: err}
	}
	return &request, nil
}
