package models

import (
	"time"

	"github.com/google/uuid"
)

// Which message table an attachment is linked to, if any.
const (
	TargetPublic  = "public"
	TargetPrivate = "private"
	TargetGroup   = "group"
)

// ChatFile is a non-image upload. At most one of the message references is set;
// the row outlives its message but not its uploader.
type ChatFile struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	URL              string     `json:"url" db:"url"`
	OriginalName     string     `json:"original_name" db:"original_name"`
	FileSize         int64      `json:"file_size" db:"file_size"`
	FileType         string     `json:"file_type" db:"file_type"`
	UploadedBy       uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt       time.Time  `json:"uploaded_at" db:"uploaded_at"`
	PublicMessageID  *uuid.UUID `json:"public_message_id,omitempty" db:"public_message_id"`
	PrivateMessageID *uuid.UUID `json:"private_message_id,omitempty" db:"private_message_id"`
	GroupMessageID   *uuid.UUID `json:"group_message_id,omitempty" db:"group_message_id"`
}

// ChatImage is an image upload with pixel dimensions recorded at upload time.
type ChatImage struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	URL              string     `json:"url" db:"url"`
	OriginalName     string     `json:"original_name" db:"original_name"`
	FileSize         int64      `json:"file_size" db:"file_size"`
	Width            *int       `json:"width,omitempty" db:"width"`
	Height           *int       `json:"height,omitempty" db:"height"`
	UploadedBy       uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt       time.Time  `json:"uploaded_at" db:"uploaded_at"`
	PublicMessageID  *uuid.UUID `json:"public_message_id,omitempty" db:"public_message_id"`
	PrivateMessageID *uuid.UUID `json:"private_message_id,omitempty" db:"private_message_id"`
	GroupMessageID   *uuid.UUID `json:"group_message_id,omitempty" db:"group_message_id"`
}

// MessageTarget links an upload to exactly one message context.
type MessageTarget struct {
	Kind string
	ID   uuid.UUID
}
