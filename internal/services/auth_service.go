package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"dial2tech_backend/internal/auth"
	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"
)

const resetTokenTTL = time.Hour

// AuthService handles registration, login and password recovery. New
// technicians start unapproved and must be cleared by an admin before they
// can receive work.
type AuthService struct {
	userRepo     repositories.UserRepository
	emailService *EmailService
}

func NewAuthService(userRepo repositories.UserRepository, emailService *EmailService) *AuthService {
	return &AuthService{userRepo: userRepo, emailService: emailService}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperrors.ErrAlreadyExists(errors.New("email already registered"))
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	status := models.UserStatusApproved
	if req.Role == models.UserRoleTechnician {
		status = models.UserStatusPending
	}

	user := &models.User{
		Email:           req.Email,
		PasswordHash:    hash,
		Name:            req.Name,
		Phone:           req.Phone,
		Role:            req.Role,
		Status:          status,
		FieldOfCategory: req.FieldOfCategory,
		Experience:      req.Experience,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &dto.AuthResponse{Token: token, User: buildUserResponse(user)}, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{Token: token, User: buildUserResponse(user)}, nil
}

// ForgotPassword issues a reset token and mails the reset link. An unknown
// email is silently accepted so the endpoint does not leak registered
// addresses.
func (s *AuthService) ForgotPassword(req *dto.ForgotPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		logger.Debug("password reset requested for unknown email", "email", req.Email)
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return apperrors.InternalError(err)
	}

	expires := time.Now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetTokenExp = &expires
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	return s.emailService.SendPasswordResetEmail(user.Email, user.Name, token)
}

func (s *AuthService) ResetPassword(req *dto.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByResetToken(req.Token)
	if err != nil {
		return apperrors.NewUnauthorizedError("invalid or expired reset token")
	}
	if user.ResetTokenExp == nil || time.Now().After(*user.ResetTokenExp) {
		return apperrors.NewUnauthorizedError("invalid or expired reset token")
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExp = nil
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	logger.Info("password reset", "user_id", user.ID)
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func buildUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Phone:           user.Phone,
		Role:            user.Role,
		Status:          user.Status,
		FieldOfCategory: user.FieldOfCategory,
		Experience:      user.Experience,
	}
}
