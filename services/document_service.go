package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"residency-application-api/models"
)

// DocumentService appends new document versions without destroying prior
// versions. Version numbers are scoped per (application_id, file_type).
type DocumentService struct {
	db     *gorm.DB
	store  BlobStore
	logger *zap.Logger
}

func NewDocumentService(db *gorm.DB, store BlobStore, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{db: db, store: store, logger: logger}
}

// Upload validates the file, stores its bytes, and appends a new document row
// with version = max(existing)+1. Validation failures happen before any blob
// store call; a failed row insert removes the stored blob again, so no
// partial state survives.
func (s *DocumentService) Upload(ctx context.Context, applicationID string, slot models.DocumentSlot, fileName string, data []byte, uploadedBy string) (*models.ApplicationDocument, error) {
	if !models.IsValidDocumentSlot(slot) {
		return nil, errors.New("invalid document slot")
	}
	if int64(len(data)) > models.MaxUploadBytes {
		return nil, &SizeLimitError{Size: int64(len(data)), Limit: models.MaxUploadBytes}
	}

	mimeType := detectContentType(fileName, data)
	if !models.IsAcceptedMimeType(slot, mimeType) {
		return nil, &UnsupportedTypeError{ContentType: mimeType, Slot: slot}
	}

	var application models.Application
	if err := s.db.WithContext(ctx).
		Where("application_id = ? AND delete_at IS NULL", applicationID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, &StorageError{Op: "load application", Err: err}
	}
	if application.Status == models.StatusCompleted {
		return nil, &InvalidStateError{Status: application.Status, Operation: "upload document"}
	}

	handle, err := s.store.Put(ctx, data, fileName)
	if err != nil {
		return nil, &StorageError{Op: "store blob", Err: err}
	}

	document, err := s.appendVersion(ctx, applicationID, slot, fileName, handle, mimeType, int64(len(data)), uploadedBy)
	if err != nil {
		// Compensate: the blob must not outlive a failed row insert.
		if delErr := s.store.Delete(ctx, handle); delErr != nil {
			s.logger.Warn("orphan blob cleanup failed",
				zap.String("handle", handle), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("application_id", applicationID),
		zap.String("file_type", string(slot)),
		zap.Int("version", document.Version))
	return document, nil
}

// appendVersion inserts the new row with MAX(version)+1 inside a transaction.
// The unique (application_id, file_type, version) index catches two uploads
// racing to the same version; the loser recomputes once.
func (s *DocumentService) appendVersion(ctx context.Context, applicationID string, slot models.DocumentSlot, fileName, handle, mimeType string, size int64, uploadedBy string) (*models.ApplicationDocument, error) {
	var document *models.ApplicationDocument
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		document, lastErr = s.tryAppendVersion(ctx, applicationID, slot, fileName, handle, mimeType, size, uploadedBy)
		if lastErr == nil {
			return document, nil
		}
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) && !isUniqueViolation(lastErr) {
			break
		}
	}
	return nil, &StorageError{Op: "append document version", Err: lastErr}
}

func (s *DocumentService) tryAppendVersion(ctx context.Context, applicationID string, slot models.DocumentSlot, fileName, handle, mimeType string, size int64, uploadedBy string) (*models.ApplicationDocument, error) {
	var document models.ApplicationDocument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int64
		if err := tx.Model(&models.ApplicationDocument{}).
			Where("application_id = ? AND file_type = ?", applicationID, slot).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		now := time.Now()
		document = models.ApplicationDocument{
			DocumentID:       uuid.New().String(),
			ApplicationID:    applicationID,
			FileType:         slot,
			OriginalFilename: fileName,
			StorageHandle:    handle,
			MimeType:         mimeType,
			FileSize:         size,
			Version:          int(maxVersion) + 1,
			UploadedBy:       uploadedBy,
			UploadedAt:       &now,
			CreateAt:         &now,
		}
		return tx.Create(&document).Error
	})
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// Latest returns the highest-version document for the slot, or nil when the
// slot has no uploads yet.
func (s *DocumentService) Latest(ctx context.Context, applicationID string, slot models.DocumentSlot) (*models.ApplicationDocument, error) {
	var document models.ApplicationDocument
	err := s.db.WithContext(ctx).
		Where("application_id = ? AND file_type = ?", applicationID, slot).
		Order("version DESC").
		First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &StorageError{Op: "load latest document", Err: err}
	}
	return &document, nil
}

// History returns every version for the slot, ascending.
func (s *DocumentService) History(ctx context.Context, applicationID string, slot models.DocumentSlot) ([]models.ApplicationDocument, error) {
	var documents []models.ApplicationDocument
	if err := s.db.WithContext(ctx).
		Where("application_id = ? AND file_type = ?", applicationID, slot).
		Order("version ASC").
		Find(&documents).Error; err != nil {
		return nil, &StorageError{Op: "load document history", Err: err}
	}
	return documents, nil
}

// List returns the latest document per slot, or the full history across all
// slots when includeHistory is set.
func (s *DocumentService) List(ctx context.Context, applicationID string, includeHistory bool) ([]models.ApplicationDocument, error) {
	if includeHistory {
		var documents []models.ApplicationDocument
		if err := s.db.WithContext(ctx).
			Where("application_id = ?", applicationID).
			Order("file_type ASC, version ASC").
			Find(&documents).Error; err != nil {
			return nil, &StorageError{Op: "list documents", Err: err}
		}
		return documents, nil
	}

	latest := make([]models.ApplicationDocument, 0, 3)
	for _, slot := range []models.DocumentSlot{models.SlotPersonalStatement, models.SlotCV, models.SlotOther} {
		document, err := s.Latest(ctx, applicationID, slot)
		if err != nil {
			return nil, err
		}
		if document != nil {
			latest = append(latest, *document)
		}
	}
	return latest, nil
}

// Find loads a document row by id without touching blob storage, so callers
// can run access checks before paying for the blob read.
func (s *DocumentService) Find(ctx context.Context, documentID string) (*models.ApplicationDocument, error) {
	var document models.ApplicationDocument
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, &StorageError{Op: "load document", Err: err}
	}
	return &document, nil
}

// Download fetches the stored bytes for a document row.
func (s *DocumentService) Download(ctx context.Context, document *models.ApplicationDocument) ([]byte, error) {
	data, err := s.store.Get(ctx, document.StorageHandle)
	if err != nil {
		return nil, &StorageError{Op: "fetch blob", Err: err}
	}
	return data, nil
}

// oleMagic is the compound-file header every real .doc file starts with.
var oleMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// detectContentType sniffs the leading bytes. DOC/DOCX are containers that
// sniff as generic zip/ole streams, so the filename extension settles those.
// A .doc extension alone is not trusted: the bytes must carry the OLE header,
// otherwise a renamed executable would slip through as msword.
func detectContentType(fileName string, data []byte) string {
	sniffed := http.DetectContentType(data)
	extension := strings.ToLower(filepath.Ext(fileName))

	switch sniffed {
	case "application/zip":
		if extension == ".docx" {
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}
	case "application/x-ole-storage":
		if extension == ".doc" {
			return "application/msword"
		}
	case "application/octet-stream":
		if extension == ".doc" && bytes.HasPrefix(data, oleMagic) {
			return "application/msword"
		}
	}

	// Strip "; charset=utf-8" style parameters.
	if idx := strings.IndexByte(sniffed, ';'); idx > 0 {
		return sniffed[:idx]
	}
	return sniffed
}

// isUniqueViolation matches driver-specific duplicate key messages that gorm
// does not translate to ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
