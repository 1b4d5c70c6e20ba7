package dto

import (
	"time"

	"dial2tech_backend/internal/models"
)

type NotificationResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	UserType  models.UserRole `json:"user_type"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	EnquiryID *string         `json:"enquiry_id,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	IsRead    bool            `json:"is_read"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int64                  `json:"total"`
	UnreadCount   int64                  `json:"unread_count"`
}
