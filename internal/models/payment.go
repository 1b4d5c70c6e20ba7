package models

import "time"

// Payment is one gateway-confirmed payment event. Rows are immutable; amounts
// are stored in rupees (the gateway boundary converts to paise).
type Payment struct {
	ID        string        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EnquiryID string        `gorm:"not null;index"`
	OrderID   string        `gorm:"not null;index"`
	PaymentID string        `gorm:"uniqueIndex"`
	Amount    float64       `gorm:"not null"`
	Status    PaymentStatus `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
}
