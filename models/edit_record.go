package models

import "time"

// EditRecord is the audit trail for staff edits. Rows are created whenever an
// edit is committed while the application is submitted or in review; they are
// never mutated or deleted.
type EditRecord struct {
	EditRecordID  string    `gorm:"primaryKey;column:edit_record_id" json:"edit_record_id"`
	ApplicationID string    `gorm:"column:application_id;index" json:"application_id"`
	EditorID      string    `gorm:"column:editor_id" json:"editor_id"`
	EditSummary   string    `gorm:"column:edit_summary;type:text" json:"edit_summary"`
	EditedFields  string    `gorm:"column:edited_fields" json:"edited_fields"`
	EditedAt      time.Time `gorm:"column:edited_at" json:"edited_at"`

	// Relations
	Editor *User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}

// TableName overrides
func (EditRecord) TableName() string {
	return "edit_records"
}
