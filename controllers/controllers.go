package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"residency-application-api/services"
)

var (
	lifecycleService *services.LifecycleService
	documentService  *services.DocumentService
	editService      *services.EditService
)

// Init wires the shared service instances. Called once from main after the
// database and blob store are ready.
func Init(db *gorm.DB, store services.BlobStore, logger *zap.Logger) {
	lifecycleService = services.NewLifecycleService(db, logger)
	lifecycleService.SetNotifier(services.NewNotifier(db, logger))
	documentService = services.NewDocumentService(db, store, logger)
	editService = services.NewEditService(db, logger)
}

// respondServiceError translates typed service errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var (
		invalidTransition *services.InvalidTransitionError
		conflict          *services.ConflictError
		invalidState      *services.InvalidStateError
		unsupportedType   *services.UnsupportedTypeError
		sizeLimit         *services.SizeLimitError
		staleVersion      *services.StaleVersionError
		storage           *services.StorageError
	)

	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
	case errors.Is(err, services.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, services.ErrEditRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Edit request not found"})
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error":            err.Error(),
			"current_status":   invalidTransition.From,
			"requested_status": invalidTransition.To,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":                   err.Error(),
			"existing_application_id": conflict.ExistingApplicationID,
		})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"status": invalidState.Status,
		})
	case errors.As(err, &unsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.As(err, &sizeLimit):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.As(err, &staleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &storage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage failure, please retry"})
	case errors.Is(err, services.ErrEmptySubmission),
		errors.Is(err, services.ErrEmptyEditSummary),
		errors.Is(err, services.ErrEditRecordRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// callerIdentity pulls the authenticated user id and role from the context.
func callerIdentity(c *gin.Context) (string, string) {
	userID, _ := c.Get("userID")
	role, _ := c.Get("role")
	id, _ := userID.(string)
	r, _ := role.(string)
	return id, r
}
