package dto

import (
	"time"

	"dial2tech_backend/internal/models"
)

type CreateEnquiryRequest struct {
	ProblemDescription string `json:"problem_description" binding:"required"`
	Domain             string `json:"domain"`
	FieldOfCategory    string `json:"field_of_category" binding:"required"`
	HardwareUsed       string `json:"hardware_used"`
	SoftwareUsed       string `json:"software_used"`
}

type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id" binding:"required"`
}

type SendQuoteRequest struct {
	TechnicianID    string  `json:"technician_id" binding:"required"`
	ApproxTimeHours float64 `json:"approx_time_hours" binding:"required,gt=0"`
	BudgetPerHour   float64 `json:"budget_per_hour" binding:"required,gt=0"`
}

type RejectQuoteRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CompleteEnquiryRequest struct {
	WorkStartedAt time.Time `json:"work_started_at" binding:"required"`
	WorkEndedAt   time.Time `json:"work_ended_at" binding:"required"`
}

type DropEnquiryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListEnquiriesQuery filters the admin listing. Status accepts any
// historical casing.
type ListEnquiriesQuery struct {
	Status string `form:"status" json:"status" validate:"is-enquiry-status"`
}

type EnquiryResponse struct {
	ID                   string               `json:"id"`
	CustomerID           string               `json:"customer_id"`
	AssignedTechnicianID *string              `json:"assigned_technician_id,omitempty"`
	ProblemDescription   string               `json:"problem_description"`
	Domain               string               `json:"domain,omitempty"`
	FieldOfCategory      string               `json:"field_of_category"`
	HardwareUsed         string               `json:"hardware_used,omitempty"`
	SoftwareUsed         string               `json:"software_used,omitempty"`
	Status               models.EnquiryStatus `json:"status"`
	Version              int                  `json:"version"`
	DropReason           *string              `json:"drop_reason,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`

	Quotes []QuoteResponse `json:"quotes,omitempty"`
}

type QuoteResponse struct {
	ID               string             `json:"id"`
	EnquiryID        string             `json:"enquiry_id"`
	TechnicianID     string             `json:"technician_id"`
	ApproxTimeHours  float64            `json:"approx_time_hours"`
	BudgetPerHour    float64            `json:"budget_per_hour"`
	EstimatedCost    float64            `json:"estimated_cost"`
	TotalBillingCost float64            `json:"total_billing_cost"`
	Status           models.QuoteStatus `json:"status"`
	RejectReason     *string            `json:"reject_reason,omitempty"`
	WorkedHours      *float64           `json:"worked_hours,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}
