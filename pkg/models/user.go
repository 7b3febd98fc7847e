package models

import (
	"strings"
	"time"
)

// UserRole represents valid user roles
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// User is an account of the development backend
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Name returns the display name, falling back to the username
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// RegisterRequest
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
}

// LoginRequest
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserProfile - public-facing profile, NO sensitive data
type UserProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginResponse
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expires_in"` // seconds
}

// ValidateRegisterRequest checks the fields binding tags cannot express
func ValidateRegisterRequest(req *RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return NewBackendRejected("username must be between 3 and 50 characters", 400)
	}
	if len(req.Password) < 8 {
		return NewBackendRejected("password must be at least 8 characters", 400)
	}
	return nil
}

// HasRole checks if user has required role (for middleware)
func (u *User) HasRole(requiredRole UserRole) bool {
	switch requiredRole {
	case UserRoleAdmin:
		return u.Role == UserRoleAdmin
	case UserRoleModerator:
		return u.Role == UserRoleModerator || u.Role == UserRoleAdmin
	default:
		return true
	}
}
