package chat

import (
	"context"
	"errors"
	"fmt"

	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const groupColumns = `id, name, description, created_by, is_active, is_private, max_participants, avatar, created_at`

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.IsActive, &g.IsPrivate, &g.MaxParticipants, &g.Avatar, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const membershipColumns = `id, group_id, user_id, role, is_active, joined_at, last_read_message_id`

func scanMembership(row pgx.Row) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt, &m.LastReadMessageID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateGroup creates the room and the owner's admin membership in one
// transaction, so no group ever exists without an admin.
func (s *Store) CreateGroup(ctx context.Context, ownerID uuid.UUID, req models.CreateGroupRequest) (*models.Group, error) {
	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = 100
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	group, err := scanGroup(tx.QueryRow(ctx, `
		INSERT INTO groups (name, description, created_by, is_private, max_participants)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+groupColumns,
		req.Name, req.Description, ownerID, req.IsPrivate, maxParticipants))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)`,
		group.ID, ownerID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit group creation: %w", err)
	}

	group.MemberCount = 1
	return group, nil
}

// JoinGroup creates a membership or reactivates an inactive one. The group
// row is locked so the active-member count and the capacity check can't race
// past max_participants.
func (s *Store) JoinGroup(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isActive bool
	var maxParticipants int
	err = tx.QueryRow(ctx,
		`SELECT is_active, max_participants FROM groups WHERE id = $1 FOR UPDATE`, groupID,
	).Scan(&isActive, &maxParticipants)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownGroup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}
	if !isActive {
		return nil, ErrGroupInactive
	}

	existing, err := scanMembership(tx.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	if existing != nil && existing.IsActive {
		return nil, ErrAlreadyMember
	}

	var activeMembers int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND is_active = TRUE`, groupID,
	).Scan(&activeMembers)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if activeMembers >= maxParticipants {
		return nil, ErrGroupFull
	}

	var membership *models.GroupMembership
	if existing != nil {
		// Rejoin reuses the row rather than creating a duplicate.
		membership, err = scanMembership(tx.QueryRow(ctx, `
			UPDATE group_members SET is_active = TRUE
			WHERE id = $1
			RETURNING `+membershipColumns, existing.ID))
	} else {
		membership, err = scanMembership(tx.QueryRow(ctx, `
			INSERT INTO group_members (group_id, user_id, role)
			VALUES ($1, $2, $3)
			RETURNING `+membershipColumns,
			groupID, userID, models.RoleMember))
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}
	return membership, nil
}

// LeaveGroup deactivates the membership, keeping the row for a later rejoin.
func (s *Store) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE group_members SET is_active = FALSE
		WHERE group_id = $1 AND user_id = $2 AND is_active = TRUE`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAMember
	}
	return nil
}

// Membership returns the caller's active membership or ErrNotAMember.
func (s *Store) Membership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id = $1 AND user_id = $2 AND is_active = TRUE`,
		groupID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	return m, nil
}

// PostGroupMessage appends to the room. Only active members of an active
// group may post.
func (s *Store) PostGroupMessage(ctx context.Context, groupID, authorID uuid.UUID, content, messageType string, replyTo *uuid.UUID) (*models.GroupMessage, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	var groupActive bool
	err := s.db.QueryRow(ctx, `SELECT is_active FROM groups WHERE id = $1`, groupID).Scan(&groupActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownGroup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}
	if !groupActive {
		return nil, ErrGroupInactive
	}

	if _, err := s.Membership(ctx, groupID, authorID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO group_messages (group_id, author_id, content, message_type, reply_to_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, group_id, author_id, content, message_type, edited, edited_at, reply_to_id, created_at
	`

	var m models.GroupMessage
	err = s.db.QueryRow(ctx, query, groupID, authorID, content, messageType, replyTo).Scan(
		&m.ID, &m.GroupID, &m.AuthorID, &m.Content, &m.MessageType, &m.Edited, &m.EditedAt, &m.ReplyToID, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to post group message: %w", err)
	}
	return &m, nil
}

// ListGroupMessages pages the room chronologically; membership is required.
func (s *Store) ListGroupMessages(ctx context.Context, groupID, requesterID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	if _, err := s.Membership(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT m.id, m.group_id, m.author_id, m.content, m.message_type, m.edited, m.edited_at, m.reply_to_id, m.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username) AS author_name
		FROM group_messages m
		JOIN users u ON u.id = m.author_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group messages: %w", err)
	}
	defer rows.Close()

	messages := []models.GroupMessage{}
	for rows.Next() {
		var m models.GroupMessage
		if err := rows.Scan(&m.ID, &m.GroupID, &m.AuthorID, &m.Content, &m.MessageType, &m.Edited, &m.EditedAt, &m.ReplyToID, &m.CreatedAt, &m.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan group message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListGroups returns the groups where the user holds an active membership,
// with live member counts.
func (s *Store) ListGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name, g.description, g.created_by, g.is_active, g.is_private, g.max_participants, g.avatar, g.created_at,
		       (SELECT COUNT(*) FROM group_members WHERE group_id = g.id AND is_active = TRUE) AS member_count
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1 AND gm.is_active = TRUE
		ORDER BY g.name ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.IsActive, &g.IsPrivate, &g.MaxParticipants, &g.Avatar, &g.CreatedAt, &g.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// MarkGroupRead advances the caller's unread marker within a group.
func (s *Store) MarkGroupRead(ctx context.Context, groupID, userID, messageID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE group_members SET last_read_message_id = $1
		WHERE group_id = $2 AND user_id = $3 AND is_active = TRUE`,
		messageID, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to update read marker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAMember
	}
	return nil
}

// DeactivateGroup retires the room while preserving its message history.
// Only a group admin may deactivate.
func (s *Store) DeactivateGroup(ctx context.Context, groupID, actorID uuid.UUID) error {
	membership, err := s.Membership(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if !membership.IsAdmin() {
		return ErrNotGroupAdmin
	}

	tag, err := s.db.Exec(ctx, `UPDATE groups SET is_active = FALSE WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to deactivate group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownGroup
	}
	return nil
}
