package dto

import (
	"time"

	"anoa.com/akademika/internal/entity"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Username    string  `json:"username" validate:"required,username"`
	Email       string  `json:"email" validate:"required,email,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	LastName    string  `json:"last_name" validate:"max=50"`
	// Role defaults to student when empty.
	Role string `json:"role" validate:"omitempty,oneof=student lecturer admin"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	// Identifier is an email address or phone number.
	Identifier string `json:"identifier" validate:"required,max=100"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	PhoneNumber *string     `json:"phone_number,omitempty"`
	Role        entity.Role `json:"role"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	FullName    string      `json:"full_name"`
	CreatedAt   time.Time   `json:"created_at"`
}

func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		CreatedAt:   u.CreatedAt,
	}
}

type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
	// Token is only populated when reset tokens are exposed (development).
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UserFilter struct {
	Role   string `form:"role" validate:"omitempty,oneof=student lecturer admin"`
	Search string `form:"search" validate:"max=100"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
