package services

import (
	"errors"

	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"
)

// UserService covers account management outside of authentication:
// technician approval, directory listings and device token registration.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	resp := buildUserResponse(user)
	return &resp, nil
}

// ApproveTechnician clears a pending technician for assignment.
func (s *UserService) ApproveTechnician(technicianID string) error {
	return s.setTechnicianStatus(technicianID, models.UserStatusApproved)
}

// RejectTechnician marks the technician application rejected.
func (s *UserService) RejectTechnician(technicianID string) error {
	return s.setTechnicianStatus(technicianID, models.UserStatusRejected)
}

func (s *UserService) setTechnicianStatus(technicianID string, status models.UserStatus) error {
	user, err := s.userRepo.FindByID(technicianID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return err
	}
	if user.Role != models.UserRoleTechnician {
		return apperrors.ErrInvalidOperation("users", "user is not a technician")
	}

	if err := s.userRepo.SetStatus(technicianID, status); err != nil {
		return err
	}

	logger.Info("technician status changed", "technician_id", technicianID, "status", status)
	return nil
}

// ListTechnicians filters the technician directory by status and category.
func (s *UserService) ListTechnicians(status models.UserStatus, category string) ([]dto.UserResponse, error) {
	users, err := s.userRepo.ListTechnicians(status, category)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, buildUserResponse(&users[i]))
	}
	return resp, nil
}

// RegisterPushToken stores the device token used for push dispatches.
func (s *UserService) RegisterPushToken(userID, token string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return err
	}

	user.PushToken = token
	return s.userRepo.Update(user)
}
