package services

import (
	"errors"
	"fmt"

	"residency-application-api/models"
)

var (
	// ErrApplicationNotFound is returned when the application does not exist
	// or has been deleted.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrDocumentNotFound is returned when no document row matches the id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEditRequestNotFound is returned when no edit request matches the id.
	ErrEditRequestNotFound = errors.New("edit request not found")

	// ErrEmptyEditSummary is returned when applyEdit is called without a
	// summary; no EditRecord is written in that case.
	ErrEmptyEditSummary = errors.New("edit summary is required")

	// ErrEmptySubmission is returned when a draft with no personal statement
	// and no documents is submitted.
	ErrEmptySubmission = errors.New("submission requires a personal statement or at least one document")

	// ErrEditRecordRequired is returned when in_review -> reviewed is
	// requested without any edit record and without the explicit
	// no-changes-needed acknowledgment.
	ErrEditRecordRequired = errors.New("review completion requires an edit record or a no-changes acknowledgment")
)

// InvalidTransitionError reports a status change not permitted from the
// current status. The current status is left unchanged.
type InvalidTransitionError struct {
	From models.ApplicationStatus
	To   models.ApplicationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ConflictError reports that the owner already has a non-terminal application.
// ExistingApplicationID lets the caller redirect the user to it.
type ConflictError struct {
	ExistingApplicationID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("owner already has an application in flight (%s)", e.ExistingApplicationID)
}

// InvalidStateError reports a mutation attempted while the application status
// forbids it.
type InvalidStateError struct {
	Status    models.ApplicationStatus
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation %q not permitted while status is %q", e.Operation, e.Status)
}

// UnsupportedTypeError rejects an upload before any storage write.
type UnsupportedTypeError struct {
	ContentType string
	Slot        models.DocumentSlot
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("content type %q is not accepted for slot %q", e.ContentType, e.Slot)
}

// SizeLimitError rejects an upload above the per-file cap.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file size %d exceeds limit of %d bytes", e.Size, e.Limit)
}

// StorageError wraps a blob store or persistence failure. Operations that
// return it leave no partial state, so callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// StaleVersionError reports an optimistic concurrency failure: the row was
// modified since the caller read it.
type StaleVersionError struct {
	ApplicationID   string
	ExpectedVersion int
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("application %s changed since version %d was read", e.ApplicationID, e.ExpectedVersion)
}
