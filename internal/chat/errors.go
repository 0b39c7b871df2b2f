package chat

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Every failing operation reports one of these to its caller. The HTTP layer
// owns the mapping to status codes; the store never logs or retries.
var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrUnknownUser        = errors.New("user does not exist")
	ErrUnknownGroup       = errors.New("group does not exist")
	ErrUnknownMessage     = errors.New("message does not exist")
	ErrNotReceiver        = errors.New("only the receiver can mark a message read")
	ErrNotAuthor          = errors.New("only the author can edit a message")
	ErrNotAMember         = errors.New("not an active member of this group")
	ErrNotGroupAdmin      = errors.New("not an admin of this group")
	ErrGroupFull          = errors.New("group has reached its participant limit")
	ErrGroupInactive      = errors.New("group is no longer active")
	ErrNoActiveSession    = errors.New("no active session for this user")
	ErrAlreadyMember      = errors.New("already an active member of this group")
)

// ValidationError aggregates field-level problems from a single operation.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, problem string) {
	e.Fields[field] = append(e.Fields[field], problem)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Postgres error codes the store maps to typed errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
