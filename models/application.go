package models

import "time"

// ApplicationStatus is the lifecycle status of an application.
type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "draft"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusInReview  ApplicationStatus = "in_review"
	StatusReviewed  ApplicationStatus = "reviewed"
	StatusCompleted ApplicationStatus = "completed"
)

// IsNonTerminal reports whether the status counts against the
// one-in-flight-review limit per owner.
func (s ApplicationStatus) IsNonTerminal() bool {
	return s == StatusSubmitted || s == StatusInReview
}

// PackageType is the purchased editing tier. Immutable after first payment.
type PackageType string

const (
	PackageStatementOnly PackageType = "statement_only"
	PackageStatementCV   PackageType = "statement_cv"
	PackageFull          PackageType = "full_package"
)

func IsValidPackageType(p PackageType) bool {
	switch p {
	case PackageStatementOnly, PackageStatementCV, PackageFull:
		return true
	}
	return false
}

type Application struct {
	ApplicationID     string            `gorm:"primaryKey;column:application_id" json:"application_id"`
	OwnerID           string            `gorm:"column:owner_id;index" json:"owner_id"`
	Status            ApplicationStatus `gorm:"column:status" json:"status"`
	PackageType       PackageType       `gorm:"column:package_type" json:"package_type"`
	PersonalStatement string            `gorm:"column:personal_statement;type:text" json:"personal_statement"`

	// RowVersion increments on every owner/staff edit and backs the
	// optimistic concurrency check on updateDraft and applyEdit.
	RowVersion int `gorm:"column:row_version" json:"row_version"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Owner       User                  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Experiences []Experience          `gorm:"foreignKey:ApplicationID" json:"experiences,omitempty"`
	Documents   []ApplicationDocument `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
	EditRecords []EditRecord          `gorm:"foreignKey:ApplicationID" json:"edit_records,omitempty"`
}

// TableName overrides
func (Application) TableName() string {
	return "applications"
}
