package chat

import (
	"context"
	"errors"
	"fmt"

	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IssueToken returns the user's bearer token, minting one only if none
// exists. Under a race, exactly one token row wins the unique constraint on
// user_id and both callers observe the same value.
func (s *Store) IssueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	candidate, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}

	var token string
	err = s.db.QueryRow(ctx, `
		INSERT INTO auth_tokens (token, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING token
	`, candidate, userID).Scan(&token)

	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race or a token already exists; return the persisted one.
		err = s.db.QueryRow(ctx, `SELECT token FROM auth_tokens WHERE user_id = $1`, userID).Scan(&token)
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// RevokeToken deletes the user's current token.
func (s *Store) RevokeToken(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoActiveSession
	}
	return nil
}

// UserForToken resolves a bearer token to its user. Unknown tokens and
// disabled accounts are both rejected.
func (s *Store) UserForToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.display_name, u.avatar, u.status,
		       u.last_seen, u.bio, u.is_active, u.is_superuser, u.created_at, u.updated_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}
