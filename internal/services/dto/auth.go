package dto

import "dial2tech_backend/internal/models"

type RegisterRequest struct {
	Email           string          `json:"email" binding:"required,email"`
	Password        string          `json:"password" binding:"required,min=8"`
	Name            string          `json:"name" binding:"required"`
	Phone           string          `json:"phone"`
	Role            models.UserRole `json:"role" binding:"required,oneof=customer technician" validate:"is-user-role"`
	FieldOfCategory string          `json:"field_of_category"`
	Experience      *int            `json:"experience"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID              string            `json:"id"`
	Email           string            `json:"email"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone,omitempty"`
	Role            models.UserRole   `json:"role"`
	Status          models.UserStatus `json:"status"`
	FieldOfCategory string            `json:"field_of_category,omitempty"`
	Experience      *int              `json:"experience,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type RegisterPushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required"`
}
