package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// CapabilityTokenLength is the length of setup/reset tokens in bytes.
	CapabilityTokenLength = 32
	// DefaultBCryptCost is the cost factor used when config supplies none.
	DefaultBCryptCost = 12
	// MinBCryptCost is the floor below which configured costs are rejected.
	MinBCryptCost = 10
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// dummyHash is a bcrypt hash of random material, verified against on lookup
// misses so timing does not reveal whether an email exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("horizon-timing-equalizer"), DefaultBCryptCost)

// GenerateCapabilityToken returns a hex-encoded single-use token backed by
// 32 bytes of cryptographic randomness.
func GenerateCapabilityToken() (string, error) {
	buf := make([]byte, CapabilityTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword hashes a plaintext password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinBCryptCost {
		cost = DefaultBCryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with its stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyVerify burns the same work as a real verification. Called on
// unknown-email lookups to keep miss timing indistinguishable from a
// wrong-password failure.
func DummyVerify(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// ConstantTimeEquals compares two token strings without leaking the position
// of the first mismatch.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
