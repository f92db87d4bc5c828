package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating the account password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	UserID    int      `json:"user_id"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	SubjectID string   `json:"subject_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. SubjectID carries
// the student_id or teacher_id tied to the account, empty for admins.
type JWTClaims struct {
	UserID    int      `json:"user_id"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	SubjectID string   `json:"subject_id,omitempty"`
	jwt.RegisteredClaims
}
