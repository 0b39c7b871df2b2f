package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const publicMessageColumns = `id, author_id, content, message_type, edited, edited_at, reply_to_id, created_at`

func scanPublicMessage(row pgx.Row) (*models.PublicMessage, error) {
	var m models.PublicMessage
	err := row.Scan(&m.ID, &m.AuthorID, &m.Content, &m.MessageType, &m.Edited, &m.EditedAt, &m.ReplyToID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// PostPublicMessage appends to the shared channel. The timestamp is assigned
// by the database at insertion and never changes afterwards.
func (s *Store) PostPublicMessage(ctx context.Context, authorID uuid.UUID, content, messageType string, replyTo *uuid.UUID) (*models.PublicMessage, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	query := `
		INSERT INTO public_messages (author_id, content, message_type, reply_to_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + publicMessageColumns

	msg, err := scanPublicMessage(s.db.QueryRow(ctx, query, authorID, content, messageType, replyTo))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to post public message: %w", err)
	}
	return msg, nil
}

// ListPublicMessages returns the newest messages first, with author display
// names resolved for rendering.
func (s *Store) ListPublicMessages(ctx context.Context, limit int) ([]models.PublicMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT m.id, m.author_id, m.content, m.message_type, m.edited, m.edited_at, m.reply_to_id, m.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username) AS author_name
		FROM public_messages m
		JOIN users u ON u.id = m.author_id
		ORDER BY m.created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public messages: %w", err)
	}
	defer rows.Close()

	messages := []models.PublicMessage{}
	for rows.Next() {
		var m models.PublicMessage
		if err := rows.Scan(&m.ID, &m.AuthorID, &m.Content, &m.MessageType, &m.Edited, &m.EditedAt, &m.ReplyToID, &m.CreatedAt, &m.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan public message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// EditPublicMessage replaces the content and flips the edited flag. Only the
// author may edit; created_at is left untouched.
func (s *Store) EditPublicMessage(ctx context.Context, messageID, editorID uuid.UUID, content string) (*models.PublicMessage, error) {
	var authorID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT author_id FROM public_messages WHERE id = $1`, messageID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownMessage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if authorID != editorID {
		return nil, ErrNotAuthor
	}

	query := `
		UPDATE public_messages
		SET content = $1, edited = TRUE, edited_at = NOW()
		WHERE id = $2
		RETURNING ` + publicMessageColumns

	msg, err := scanPublicMessage(s.db.QueryRow(ctx, query, content, messageID))
	if err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	return msg, nil
}

func (s *Store) DeletePublicMessage(ctx context.Context, messageID, actorID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM public_messages WHERE id = $1 AND author_id = $2`, messageID, actorID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownMessage
	}
	return nil
}

const privateMessageColumns = `id, sender_id, receiver_id, content, message_type, edited, edited_at, is_read, read_at, reply_to_id, created_at`

func scanPrivateMessage(row pgx.Row) (*models.PrivateMessage, error) {
	var m models.PrivateMessage
	err := row.Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
		&m.Edited, &m.EditedAt, &m.IsRead, &m.ReadAt, &m.ReplyToID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SendPrivateMessage appends an unread message between two users. The
// receiver must exist; a sender messaging themselves is allowed.
func (s *Store) SendPrivateMessage(ctx context.Context, senderID uuid.UUID, req models.SendPrivateMessageRequest) (*models.PrivateMessage, error) {
	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	query := `
		INSERT INTO private_messages (sender_id, receiver_id, content, message_type, reply_to_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + privateMessageColumns

	msg, err := scanPrivateMessage(s.db.QueryRow(ctx, query, senderID, req.ReceiverID, req.Content, messageType, req.ReplyToID))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to send private message: %w", err)
	}
	return msg, nil
}

// MarkRead sets is_read for a delivered message. Only the receiver may mark
// it, and repeat calls keep the original read_at.
func (s *Store) MarkRead(ctx context.Context, messageID, readerID uuid.UUID) (*models.PrivateMessage, error) {
	msg, err := scanPrivateMessage(s.db.QueryRow(ctx,
		`SELECT `+privateMessageColumns+` FROM private_messages WHERE id = $1`, messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownMessage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	if msg.ReceiverID != readerID {
		return nil, ErrNotReceiver
	}
	if msg.IsRead {
		return msg, nil
	}

	query := `
		UPDATE private_messages
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND is_read = FALSE
		RETURNING ` + privateMessageColumns

	updated, err := scanPrivateMessage(s.db.QueryRow(ctx, query, messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent call won; re-read the settled row.
		return scanPrivateMessage(s.db.QueryRow(ctx,
			`SELECT `+privateMessageColumns+` FROM private_messages WHERE id = $1`, messageID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	return updated, nil
}

// ConversationWith returns the full two-way history between the caller and a
// contact, oldest first.
func (s *Store) ConversationWith(ctx context.Context, userID, contactID uuid.UUID) ([]models.PrivateMessage, error) {
	query := `
		SELECT ` + privateMessageColumns + `
		FROM private_messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	defer rows.Close()

	messages := []models.PrivateMessage{}
	for rows.Next() {
		var m models.PrivateMessage
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
			&m.Edited, &m.EditedAt, &m.IsRead, &m.ReadAt, &m.ReplyToID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan private message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UnreadCount is the number of delivered-but-unread messages for a user.
func (s *Store) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM private_messages WHERE receiver_id = $1 AND is_read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unread count: %w", err)
	}
	return count, nil
}

// Contacts lists every user the caller has exchanged private messages with,
// most recent conversation first, with per-contact unread counts.
func (s *Store) Contacts(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.avatar, u.status,
		       (SELECT COUNT(*) FROM private_messages
		        WHERE sender_id = u.id AND receiver_id = $1 AND is_read = FALSE) AS unread_count,
		       last.created_at
		FROM users u
		JOIN LATERAL (
			SELECT created_at FROM private_messages
			WHERE (sender_id = $1 AND receiver_id = u.id) OR (sender_id = u.id AND receiver_id = $1)
			ORDER BY created_at DESC
			LIMIT 1
		) last ON TRUE
		WHERE u.id != $1
		ORDER BY last.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		var lastAt time.Time
		if err := rows.Scan(&c.ID, &c.Username, &c.DisplayName, &c.Avatar, &c.Status, &c.UnreadCount, &lastAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range contacts {
		last, err := scanPrivateMessage(s.db.QueryRow(ctx, `
			SELECT `+privateMessageColumns+`
			FROM private_messages
			WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC
			LIMIT 1
		`, userID, contacts[i].ID))
		if err == nil {
			contacts[i].LastMessage = last
		}
	}
	return contacts, nil
}
