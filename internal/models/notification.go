package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID    string   `gorm:"not null;index"`
	UserType  UserRole `gorm:"type:varchar(20);not null"`
	Type      string   `gorm:"not null"` // "quote_sent", "technician_assigned", "quote_accepted", ...
	Message   string
	EnquiryID *string        `gorm:"index"`
	Data      datatypes.JSON `gorm:"type:jsonb"` // {"enquiry_id": "...", "quote_id": "..."}
	IsRead    bool           `gorm:"default:false"`
	ReadAt    *time.Time
}
