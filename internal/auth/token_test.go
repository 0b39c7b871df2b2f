package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GenerateToken_ShapeAndUniqueness(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		req.NoError(err)
		req.Len(token, TokenLength)

		_, err = hex.DecodeString(token)
		req.NoError(err)

		req.False(seen[token], "token repeated")
		seen[token] = true
	}
}
