package chat

import (
	"context"
	"errors"
	"fmt"

	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// targetColumns maps an optional message target onto the three nullable
// back-reference columns shared by chat_files and chat_images.
func targetColumns(target *models.MessageTarget) (publicID, privateID, groupID *uuid.UUID, err error) {
	if target == nil {
		return nil, nil, nil, nil
	}
	switch target.Kind {
	case models.TargetPublic:
		return &target.ID, nil, nil, nil
	case models.TargetPrivate:
		return nil, &target.ID, nil, nil
	case models.TargetGroup:
		return nil, nil, &target.ID, nil
	default:
		verr := NewValidationError()
		verr.Add("target", fmt.Sprintf("unknown message target %q", target.Kind))
		return nil, nil, nil, verr
	}
}

type CreateFileParams struct {
	URL          string
	OriginalName string
	FileSize     int64
	FileType     string
	UploadedBy   uuid.UUID
	Target       *models.MessageTarget
}

// CreateFile records a stored non-image upload, linked to at most one message.
func (s *Store) CreateFile(ctx context.Context, p CreateFileParams) (*models.ChatFile, error) {
	publicID, privateID, groupID, err := targetColumns(p.Target)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO chat_files (url, original_name, file_size, file_type, uploaded_by, public_message_id, private_message_id, group_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, url, original_name, file_size, file_type, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
	`

	var f models.ChatFile
	err = s.db.QueryRow(ctx, query,
		p.URL, p.OriginalName, p.FileSize, p.FileType, p.UploadedBy, publicID, privateID, groupID,
	).Scan(
		&f.ID, &f.URL, &f.OriginalName, &f.FileSize, &f.FileType, &f.UploadedBy, &f.UploadedAt,
		&f.PublicMessageID, &f.PrivateMessageID, &f.GroupMessageID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownMessage
		}
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return &f, nil
}

type CreateImageParams struct {
	URL          string
	OriginalName string
	FileSize     int64
	Width        *int
	Height       *int
	UploadedBy   uuid.UUID
	Target       *models.MessageTarget
}

// CreateImage records a stored image upload with its pixel dimensions.
func (s *Store) CreateImage(ctx context.Context, p CreateImageParams) (*models.ChatImage, error) {
	publicID, privateID, groupID, err := targetColumns(p.Target)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO chat_images (url, original_name, file_size, width, height, uploaded_by, public_message_id, private_message_id, group_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, url, original_name, file_size, width, height, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
	`

	var img models.ChatImage
	err = s.db.QueryRow(ctx, query,
		p.URL, p.OriginalName, p.FileSize, p.Width, p.Height, p.UploadedBy, publicID, privateID, groupID,
	).Scan(
		&img.ID, &img.URL, &img.OriginalName, &img.FileSize, &img.Width, &img.Height,
		&img.UploadedBy, &img.UploadedAt, &img.PublicMessageID, &img.PrivateMessageID, &img.GroupMessageID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownMessage
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}
	return &img, nil
}

func (s *Store) GetFile(ctx context.Context, id uuid.UUID) (*models.ChatFile, error) {
	query := `
		SELECT id, url, original_name, file_size, file_type, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
		FROM chat_files WHERE id = $1
	`

	var f models.ChatFile
	err := s.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.URL, &f.OriginalName, &f.FileSize, &f.FileType, &f.UploadedBy, &f.UploadedAt,
		&f.PublicMessageID, &f.PrivateMessageID, &f.GroupMessageID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownMessage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	return &f, nil
}

func (s *Store) GetImage(ctx context.Context, id uuid.UUID) (*models.ChatImage, error) {
	query := `
		SELECT id, url, original_name, file_size, width, height, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
		FROM chat_images WHERE id = $1
	`

	var img models.ChatImage
	err := s.db.QueryRow(ctx, query, id).Scan(
		&img.ID, &img.URL, &img.OriginalName, &img.FileSize, &img.Width, &img.Height,
		&img.UploadedBy, &img.UploadedAt, &img.PublicMessageID, &img.PrivateMessageID, &img.GroupMessageID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownMessage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	return &img, nil
}

// ListUploads returns a user's uploads, newest first.
func (s *Store) ListUploads(ctx context.Context, userID uuid.UUID) ([]models.ChatFile, []models.ChatImage, error) {
	fileRows, err := s.db.Query(ctx, `
		SELECT id, url, original_name, file_size, file_type, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
		FROM chat_files WHERE uploaded_by = $1 ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch files: %w", err)
	}
	defer fileRows.Close()

	files := []models.ChatFile{}
	for fileRows.Next() {
		var f models.ChatFile
		if err := fileRows.Scan(
			&f.ID, &f.URL, &f.OriginalName, &f.FileSize, &f.FileType, &f.UploadedBy, &f.UploadedAt,
			&f.PublicMessageID, &f.PrivateMessageID, &f.GroupMessageID,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := fileRows.Err(); err != nil {
		return nil, nil, err
	}

	imageRows, err := s.db.Query(ctx, `
		SELECT id, url, original_name, file_size, width, height, uploaded_by, uploaded_at, public_message_id, private_message_id, group_message_id
		FROM chat_images WHERE uploaded_by = $1 ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch images: %w", err)
	}
	defer imageRows.Close()

	images := []models.ChatImage{}
	for imageRows.Next() {
		var img models.ChatImage
		if err := imageRows.Scan(
			&img.ID, &img.URL, &img.OriginalName, &img.FileSize, &img.Width, &img.Height,
			&img.UploadedBy, &img.UploadedAt, &img.PublicMessageID, &img.PrivateMessageID, &img.GroupMessageID,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return files, images, imageRows.Err()
}
