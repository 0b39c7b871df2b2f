package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles within a group.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

type Group struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	CreatedBy       uuid.UUID `json:"created_by" db:"created_by"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	IsPrivate       bool      `json:"is_private" db:"is_private"`
	MaxParticipants int       `json:"max_participants" db:"max_participants"`
	Avatar          string    `json:"avatar" db:"avatar"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	MemberCount int `json:"member_count,omitempty"`
}

type GroupMembership struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	GroupID           uuid.UUID  `json:"group_id" db:"group_id"`
	UserID            uuid.UUID  `json:"user_id" db:"user_id"`
	Role              string     `json:"role" db:"role"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	JoinedAt          time.Time  `json:"joined_at" db:"joined_at"`
	LastReadMessageID *uuid.UUID `json:"last_read_message_id,omitempty" db:"last_read_message_id"`
}

type CreateGroupRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Description     string `json:"description"`
	IsPrivate       bool   `json:"is_private"`
	MaxParticipants int    `json:"max_participants" binding:"omitempty,min=2"`
}

func (m *GroupMembership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

func (m *GroupMembership) CanModerate() bool {
	return m.Role == RoleAdmin || m.Role == RoleModerator
}
