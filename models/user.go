package models

import "time"

// Role values stored on users.role.
const (
	RoleApplicant = "applicant"
	RoleStaff     = "staff"
)

type User struct {
	UserID       string     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Email        string     `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash" json:"-"`
	UserFname    string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname    string     `gorm:"column:user_lname" json:"user_lname"`
	Role         string     `gorm:"column:role" json:"role"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u *User) FullName() string {
	return u.UserFname + " " + u.UserLname
}
