package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/zeebo/blake3"

	"labelpress/internal/constants"
)

// base62Alphabet is used for human-friendly key encoding (no special chars).
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// HashKey computes a BLAKE3 hash of an API key for storage and lookup.
// The plaintext is never stored — only the hash.
func HashKey(key string) string {
	hasher := blake3.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateAPIKey creates a new API key with the lbp_ prefix.
// Returns the plaintext key (shown once to the operator).
func GenerateAPIKey() (string, error) {
	encoded, err := generateBase62(constants.AuthAPIKeyRandomBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return constants.APIKeyPrefix + encoded, nil
}

// generateBase62 produces n random base62 characters.
func generateBase62(n int) (string, error) {
	out := make([]byte, n)
	alphabetLen := big.NewInt(int64(len(base62Alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = base62Alphabet[idx.Int64()]
	}
	return string(out), nil
}
