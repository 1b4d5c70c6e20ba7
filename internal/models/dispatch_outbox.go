package models

import (
	"time"

	"gorm.io/datatypes"
)

type DispatchChannel string

const (
	DispatchChannelPush  DispatchChannel = "push"
	DispatchChannelEmail DispatchChannel = "email"
)

// DispatchOutbox is a pending notification dispatch, written in the same
// transaction as the enquiry transition that caused it. The dispatch worker
// delivers rows at least once; the unique idempotency key keeps a retried
// transition from producing a duplicate user-visible message.
type DispatchOutbox struct {
	ID             string          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EnquiryID      string          `gorm:"not null;index"`
	Event          string          `gorm:"not null"` // "technician_assigned", "quote_rejected", ...
	Channel        DispatchChannel `gorm:"type:varchar(10);not null"`
	RecipientID    string          `gorm:"not null"`
	Recipient      string          `gorm:"not null"` // email address or push token
	Subject        string
	Body           string
	Payload        datatypes.JSON `gorm:"type:jsonb"`
	IdempotencyKey string         `gorm:"uniqueIndex;not null"`
	Status         DispatchStatus `gorm:"type:varchar(10);not null;default:'pending';index"`
	Attempts       int            `gorm:"not null;default:0"`
	LastError      *string
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
