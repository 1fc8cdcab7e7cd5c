// Package passkdf derives the shared-passphrase fallback key. Used only when
// no handshake has occurred; every party holding the passphrase can decrypt.
package passkdf

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is a correctness parameter, not a tunable: changing it
	// breaks interoperability with every peer using the old count.
	Iterations = 100_000

	SaltSize = 16
	KeySize  = 32
)

// Derive returns the 256-bit key for passphrase+salt. Deterministic: the salt
// travels with the ciphertext and the receiver must reproduce the same key.
func Derive(passphrase string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("passkdf: salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return pbkdf2.Key([]byte(passphrase), salt, Iterations, KeySize, sha256.New), nil
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("passkdf: generate salt: %w", err)
	}
	return salt, nil
}
