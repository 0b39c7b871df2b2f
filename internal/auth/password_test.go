package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_PasswordPolicy_AcceptsStrongPassword(t *testing.T) {
	req := require.New(t)

	policy := DefaultPasswordPolicy()
	problems := policy.Validate("Str0ngPass!", "alice", "Alice")
	req.Empty(problems)
}

func Test_PasswordPolicy_RejectsShortPassword(t *testing.T) {
	req := require.New(t)

	policy := DefaultPasswordPolicy()
	problems := policy.Validate("abc1", "alice", "Alice")
	req.Contains(problems, "password is too short")
}

func Test_PasswordPolicy_RejectsNumericPassword(t *testing.T) {
	req := require.New(t)

	policy := DefaultPasswordPolicy()
	problems := policy.Validate("1234567890", "alice", "Alice")
	req.Contains(problems, "password is entirely numeric")
}

func Test_PasswordPolicy_RejectsPasswordSimilarToUsername(t *testing.T) {
	req := require.New(t)

	policy := DefaultPasswordPolicy()
	problems := policy.Validate("christopher1", "christopher", "Chris")
	req.Contains(problems, "password is too similar to the username")

	// Short usernames should not poison every password containing them.
	problems = policy.Validate("abcdefgh1", "ab", "")
	req.Empty(problems)
}

func Test_PasswordPolicy_AggregatesProblems(t *testing.T) {
	req := require.New(t)

	policy := DefaultPasswordPolicy()
	problems := policy.Validate("1234", "alice", "")
	req.Len(problems, 2)
}

func Test_PasswordPolicy_CustomMinLength(t *testing.T) {
	req := require.New(t)

	policy := PasswordPolicy{MinLength: 12}
	req.NotEmpty(policy.Validate("elevenchars", "alice", ""))
	req.Empty(policy.Validate("twelvechars!", "alice", ""))
}

func Test_HashAndCheckPassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Str0ngPass!")
	req.NoError(err)
	req.NotEqual("Str0ngPass!", hash)

	req.True(CheckPassword("Str0ngPass!", hash))
	req.False(CheckPassword("wrong", hash))
}
