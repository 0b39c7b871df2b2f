package models

import (
	"time"

	"github.com/google/uuid"
)

// Message kinds. Private messages never carry the system kind.
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// PublicMessage is visible to every user in the shared channel.
type PublicMessage struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	AuthorID    uuid.UUID  `json:"author_id" db:"author_id"`
	Content     string     `json:"content" db:"content"`
	MessageType string     `json:"message_type" db:"message_type"`
	Edited      bool       `json:"edited" db:"edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty" db:"edited_at"`
	ReplyToID   *uuid.UUID `json:"reply_to_id,omitempty" db:"reply_to_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	AuthorName string `json:"author_name,omitempty"`
}

// PrivateMessage is visible only to its sender and receiver.
type PrivateMessage struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	SenderID    uuid.UUID  `json:"sender_id" db:"sender_id"`
	ReceiverID  uuid.UUID  `json:"receiver_id" db:"receiver_id"`
	Content     string     `json:"content" db:"content"`
	MessageType string     `json:"message_type" db:"message_type"`
	Edited      bool       `json:"edited" db:"edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty" db:"edited_at"`
	IsRead      bool       `json:"is_read" db:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	ReplyToID   *uuid.UUID `json:"reply_to_id,omitempty" db:"reply_to_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// GroupMessage is visible only to active members of its group.
type GroupMessage struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	GroupID     uuid.UUID  `json:"group_id" db:"group_id"`
	AuthorID    uuid.UUID  `json:"author_id" db:"author_id"`
	Content     string     `json:"content" db:"content"`
	MessageType string     `json:"message_type" db:"message_type"`
	Edited      bool       `json:"edited" db:"edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty" db:"edited_at"`
	ReplyToID   *uuid.UUID `json:"reply_to_id,omitempty" db:"reply_to_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	AuthorName string `json:"author_name,omitempty"`
}

type PostMessageRequest struct {
	Content     string     `json:"content" binding:"required"`
	MessageType string     `json:"message_type" binding:"omitempty,oneof=text image file system"`
	ReplyToID   *uuid.UUID `json:"reply_to_id"`
}

type SendPrivateMessageRequest struct {
	ReceiverID  uuid.UUID  `json:"receiver_id" binding:"required"`
	Content     string     `json:"content" binding:"required"`
	MessageType string     `json:"message_type" binding:"omitempty,oneof=text image file"`
	ReplyToID   *uuid.UUID `json:"reply_to_id"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Contact is a user the caller has exchanged private messages with.
type Contact struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Avatar      string          `json:"avatar"`
	Status      string          `json:"status"`
	UnreadCount int             `json:"unread_count"`
	LastMessage *PrivateMessage `json:"last_message,omitempty"`
}
