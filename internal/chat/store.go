package chat

import (
	"context"
	"errors"
	"fmt"

	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/database"
	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store owns the chat data model: users, sessions, the three message channels,
// groups and attachments. Every method takes the acting user explicitly and
// runs against the pool in a single statement or transaction.
type Store struct {
	db     *database.Database
	policy auth.PasswordPolicy
}

func NewStore(db *database.Database, policy auth.PasswordPolicy) *Store {
	return &Store{db: db, policy: policy}
}

const userColumns = `id, username, email, display_name, avatar, status, last_seen, bio, is_active, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Avatar, &u.Status,
		&u.LastSeen, &u.Bio, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type CreateUserParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Superuser   bool
}

// CreateUser registers a new user with a hashed credential. Duplicate
// usernames lose the race at the unique constraint and are reported as
// ErrDuplicateUsername; password policy failures come back as a field-level
// ValidationError.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*models.User, error) {
	verr := NewValidationError()
	if p.Username == "" {
		verr.Add("username", "username is required")
	}
	for _, problem := range s.policy.Validate(p.Password, p.Username, p.DisplayName) {
		verr.Add("password", problem)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, display_name, is_superuser)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, p.Username, p.Email, hash, p.DisplayName, p.Superuser))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks the credential against the stored hash. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE username = $1`

	var u models.User
	err := s.db.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Avatar, &u.Status,
		&u.LastSeen, &u.Bio, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
		&u.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(s.db.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req to the user's row.
func (s *Store) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($1, display_name),
		    avatar = COALESCE($2, avatar),
		    status = COALESCE($3, status),
		    bio = COALESCE($4, bio),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, req.DisplayName, req.Avatar, req.Status, req.Bio, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the old credential before applying the policy to
// the new one.
func (s *Store) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	var username, displayName, currentHash string
	err := s.db.QueryRow(ctx,
		`SELECT username, display_name, password_hash FROM users WHERE id = $1`, userID,
	).Scan(&username, &displayName, &currentHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if !auth.CheckPassword(oldPassword, currentHash) {
		return ErrInvalidCredentials
	}

	verr := NewValidationError()
	for _, problem := range s.policy.Validate(newPassword, username, displayName) {
		verr.Add("new_password", problem)
	}
	if verr.HasErrors() {
		return verr
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, newHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdatePresence records a status change and refreshes last_seen.
func (s *Store) UpdatePresence(ctx context.Context, userID uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET status = $1, last_seen = NOW(), updated_at = NOW() WHERE id = $2`,
		status, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

// DeleteUser removes the user and, through the schema's cascade rules, every
// message, membership and attachment they own.
func (s *Store) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}
