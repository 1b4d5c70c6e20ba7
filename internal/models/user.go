package models

import "time"

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Name         string     `gorm:"not null"`
	Phone        string
	Role         UserRole   `gorm:"type:varchar(20);not null"`
	Status       UserStatus `gorm:"type:varchar(20);default:'pending'"`

	// Technician fields, empty for customers and admins.
	FieldOfCategory string
	Experience      *int
	PushToken       string

	ResetToken    string
	ResetTokenExp *time.Time
}

// IsApprovedTechnician reports whether the user may be assigned enquiries.
func (u *User) IsApprovedTechnician() bool {
	return u.Role == UserRoleTechnician && u.Status == UserStatusApproved
}
