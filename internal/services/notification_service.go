package services

import (
	"errors"

	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"
)

// NotificationService serves the in-app notification feed. Delivery to
// external channels goes through the dispatch outbox, not through here.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// GetUserNotifications returns a page of the user's feed plus the unread
// count for the badge.
func (s *NotificationService) GetUserNotifications(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, criteria)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NotificationListResponse{
		Total:       total,
		UnreadCount: unread,
	}
	for i := range notifications {
		resp.Notifications = append(resp.Notifications, buildNotificationResponse(&notifications[i]))
	}
	return resp, nil
}

// MarkAsRead marks one notification read. Users can only touch their own
// rows; marking an already-read notification is a no-op.
func (s *NotificationService) MarkAsRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return err
	}
	if notification.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}
	return s.notificationRepo.MarkAsRead(notificationID)
}

func (s *NotificationService) MarkAllAsRead(userID string) error {
	return s.notificationRepo.MarkAllAsRead(userID)
}

func (s *NotificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notificationRepo.GetUnreadCount(userID)
}

func buildNotificationResponse(n *models.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		UserType:  n.UserType,
		Type:      n.Type,
		Message:   n.Message,
		EnquiryID: n.EnquiryID,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
