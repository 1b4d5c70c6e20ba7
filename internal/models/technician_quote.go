package models

import "time"

// TechnicianQuote is one quote attempt for an enquiry. A new attempt is a new
// row; only the status and the work period fields change after creation.
//
// EstimatedCost is always the raw rate * hours figure; TotalBillingCost is the
// marked-up amount the customer owes. Reconciliation runs against
// TotalBillingCost only.
type TechnicianQuote struct {
	ID               string      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EnquiryID        string      `gorm:"not null;index"`
	TechnicianID     string      `gorm:"not null;index"`
	ApproxTimeHours  float64     `gorm:"not null"`
	BudgetPerHour    float64     `gorm:"not null"`
	EstimatedCost    float64
	TotalBillingCost float64
	Status           QuoteStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	RejectReason     *string

	// Filled when the technician marks the enquiry complete.
	WorkStartedAt *time.Time
	WorkEndedAt   *time.Time
	WorkedHours   *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
