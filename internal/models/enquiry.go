package models

import "time"

// Enquiry is a customer's service request. Enquiries are never hard-deleted,
// only status-transitioned; Version backs compare-and-swap transition writes.
type Enquiry struct {
	ID                   string `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CustomerID           string `gorm:"not null;index"`
	AssignedTechnicianID *string
	ProblemDescription   string `gorm:"not null"`
	Domain               string
	FieldOfCategory      string        `gorm:"index"`
	HardwareUsed         string
	SoftwareUsed         string
	Status               EnquiryStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Version              int           `gorm:"not null;default:1"`
	DropReason           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
