package models

import (
	"time"

	"github.com/google/uuid"
)

// Presence statuses a user can be in.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Avatar       string    `json:"avatar" db:"avatar"`
	Status       string    `json:"status" db:"status"`
	LastSeen     time.Time `json:"last_seen" db:"last_seen"`
	Bio          string    `json:"bio" db:"bio"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsSuperuser  bool      `json:"-" db:"is_superuser"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	Username             string `json:"username" binding:"required,max=150"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	DisplayName          string `json:"display_name" binding:"required,max=50"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Avatar      *string `json:"avatar"`
	Status      *string `json:"status" binding:"omitempty,oneof=online away busy offline"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
