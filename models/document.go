package models

import "time"

// DocumentSlot is the logical category a document belongs to. Versions are
// tracked independently per (application_id, file_type) pair.
type DocumentSlot string

const (
	SlotPersonalStatement DocumentSlot = "personal_statement"
	SlotCV                DocumentSlot = "cv"
	SlotOther             DocumentSlot = "other"
)

func IsValidDocumentSlot(s DocumentSlot) bool {
	switch s {
	case SlotPersonalStatement, SlotCV, SlotOther:
		return true
	}
	return false
}

// MaxUploadBytes is the per-file upload cap (10 MiB).
const MaxUploadBytes = 10 * 1024 * 1024

// ApplicationDocument is one uploaded version of a slot. Rows are append-only:
// a new upload to the same slot creates a new row with version = max + 1 and
// never touches prior versions.
type ApplicationDocument struct {
	DocumentID       string       `gorm:"primaryKey;column:document_id" json:"document_id"`
	ApplicationID    string       `gorm:"column:application_id;index;uniqueIndex:idx_document_slot_version" json:"application_id"`
	FileType         DocumentSlot `gorm:"column:file_type;uniqueIndex:idx_document_slot_version" json:"file_type"`
	OriginalFilename string       `gorm:"column:original_filename" json:"original_filename"`
	StorageHandle    string       `gorm:"column:storage_handle" json:"storage_handle"`
	MimeType         string       `gorm:"column:mime_type" json:"mime_type"`
	FileSize         int64        `gorm:"column:file_size" json:"file_size"`
	Version          int          `gorm:"column:version;uniqueIndex:idx_document_slot_version" json:"version"`
	UploadedBy       string       `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt       *time.Time   `gorm:"column:uploaded_at" json:"uploaded_at"`
	CreateAt         *time.Time   `gorm:"column:create_at" json:"create_at"`

	// Relations
	Application Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

// TableName overrides
func (ApplicationDocument) TableName() string {
	return "application_documents"
}

var documentMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

var imageMimeTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
}

// IsAcceptedMimeType reports whether the detected content type is allowed for
// the slot. Images are accepted in the "other" slot only.
func IsAcceptedMimeType(slot DocumentSlot, mimeType string) bool {
	for _, valid := range documentMimeTypes {
		if mimeType == valid {
			return true
		}
	}
	if slot == SlotOther {
		for _, valid := range imageMimeTypes {
			if mimeType == valid {
				return true
			}
		}
	}
	return false
}

func (d *ApplicationDocument) GetFileSizeInMB() float64 {
	return float64(d.FileSize) / (1024 * 1024)
}
