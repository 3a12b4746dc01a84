package auth

import (
	"github.com/castellan-io/backoffice/internal/users"
)

// SignUpRequest captures the fields required to create an operator account.
type SignUpRequest struct {
	Email           string `json:"email" validate:"required"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// SignInRequest captures the user credentials sent to the signin endpoint.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse contains the user and session token produced by a
// successful signup or signin.
type SessionResponse struct {
	User  *users.UserDTO `json:"user"`
	Token string         `json:"token"`
}

// MeResponse exposes the authenticated user.
type MeResponse struct {
	User *users.UserDTO `json:"user"`
}
