package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/arklim/reviewapp-auth/internal/core/port"
)

var ten = big.NewInt(10)

// GenerateNumericCode returns a random numeric string of the given length.
// Every digit is drawn uniformly from crypto/rand; leading zeros are kept.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}

// GenerateSecureToken returns a base64 URL-safe random string using the specified number of random bytes.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokenHasher derives keyed one-way digests of OTP codes and reset tokens.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher builds a hasher keyed by secret.
func NewTokenHasher(secret string) (*TokenHasher, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &TokenHasher{key: []byte(secret)}, nil
}

// Hash returns the hex encoded HMAC-SHA256 of value.
func (h *TokenHasher) Hash(value string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal reports whether value hashes to hash, in constant time.
func (h *TokenHasher) Equal(value, hash string) bool {
	expected, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return hmac.Equal(mac.Sum(nil), expected)
}

var _ port.SecretHasher = (*TokenHasher)(nil)
