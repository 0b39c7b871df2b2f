package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordPolicy mirrors the recognized strength checks: minimum length,
// not purely numeric, not too similar to the username or display name.
type PasswordPolicy struct {
	MinLength int
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8}
}

// Validate returns one message per failed check, empty when the password passes.
func (p PasswordPolicy) Validate(password, username, displayName string) []string {
	var problems []string

	minLength := p.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if len(password) < minLength {
		problems = append(problems, "password is too short")
	}
	if isEntirelyNumeric(password) {
		problems = append(problems, "password is entirely numeric")
	}
	if tooSimilar(password, username) || tooSimilar(password, displayName) {
		problems = append(problems, "password is too similar to the username")
	}
	return problems
}

func isEntirelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar reports whether one string contains the other, case-insensitively.
// Short attribute values are ignored to avoid rejecting everything.
func tooSimilar(password, attribute string) bool {
	if len(attribute) < 4 {
		return false
	}
	p := strings.ToLower(password)
	a := strings.ToLower(attribute)
	return strings.Contains(p, a) || strings.Contains(a, p)
}
