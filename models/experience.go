package models

import "time"

// Field length caps enforced at the boundary before an experience is persisted.
const (
	ExperienceDescriptionMax = 750
	MeaningfulDescriptionMax = 300
)

// Experience is owned exclusively by its Application; the display order is
// the insertion order, which is meaningful for rendering only.
type Experience struct {
	ExperienceID          string     `gorm:"primaryKey;column:experience_id" json:"experience_id"`
	ApplicationID         string     `gorm:"column:application_id;index" json:"application_id"`
	Title                 string     `gorm:"column:title" json:"title"`
	Organization          string     `gorm:"column:organization" json:"organization"`
	Description           string     `gorm:"column:description;type:text" json:"description"`
	IsMostMeaningful      bool       `gorm:"column:is_most_meaningful" json:"is_most_meaningful"`
	MeaningfulDescription *string    `gorm:"column:meaningful_description" json:"meaningful_description,omitempty"`
	StartDate             time.Time  `gorm:"column:start_date" json:"start_date"`
	EndDate               *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	DisplayOrder          int        `gorm:"column:display_order" json:"display_order"`
	CreateAt              *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt              *time.Time `gorm:"column:update_at" json:"update_at"`
}

// TableName overrides
func (Experience) TableName() string {
	return "experiences"
}

// IsOngoing reports whether the experience has no end date.
func (e *Experience) IsOngoing() bool {
	return e.EndDate == nil
}
