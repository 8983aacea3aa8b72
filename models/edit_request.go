package models

import "time"

// EditRequest statuses.
const (
	EditRequestOpen     = "open"
	EditRequestResolved = "resolved"
)

// EditRequest is an owner-created request for further changes, recorded
// server-side so it survives across sessions and is visible to staff.
type EditRequest struct {
	EditRequestID string     `gorm:"primaryKey;column:edit_request_id" json:"edit_request_id"`
	ApplicationID string     `gorm:"column:application_id;index" json:"application_id"`
	RequestedBy   string     `gorm:"column:requested_by" json:"requested_by"`
	Message       string     `gorm:"column:message;type:text" json:"message"`
	Status        string     `gorm:"column:status" json:"status"`
	ResolvedBy    *string    `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName overrides
func (EditRequest) TableName() string {
	return "edit_requests"
}
