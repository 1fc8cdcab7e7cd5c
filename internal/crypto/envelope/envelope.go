// Package envelope implements the AEAD wire format for one encrypted message.
//
// Canonical layout: iv (12B) || ciphertext || tag (16B), with an optional
// 16-byte salt prefix on the passphrase path. An older peer generation emitted
// iv || tag || ciphertext; that ordering is accepted on decode only.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

const (
	// SaltSize is the salt prefix length on the passphrase path.
	SaltSize = 16
	// IVSize is the AES-GCM nonce length.
	IVSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// KeySize is the AES-256 key length.
	KeySize = 32
)

// Seal encrypts plaintext under a 256-bit key and returns iv || ciphertext || tag.
// The IV is freshly random on every call; it is never cached or reused.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("envelope: generate iv: %w", err)
	}

	// gcm.Seal appends the tag, so the output is already ct||tag.
	out := make([]byte, 0, IVSize+len(plaintext)+TagSize)
	out = append(out, iv...)
	return gcm.Seal(out, iv, plaintext, nil), nil
}

// SealWithSalt is the passphrase-path variant: salt || iv || ciphertext || tag.
// The salt is carried on the wire so the receiver can re-derive the key.
func SealWithSalt(key, salt, plaintext []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("envelope: salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, SaltSize+len(sealed))
	out = append(out, salt...)
	return append(out, sealed...), nil
}

// Open decrypts iv || ciphertext || tag under key. Returns
// domain.ErrFormat when the blob is shorter than the fixed fields and
// domain.ErrAuthentication when no decoder's tag verifies.
func Open(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < IVSize+TagSize {
		return nil, domain.ErrFormat
	}

	iv := blob[:IVSize]
	rest := blob[IVSize:]

	// Ordered decoder list: canonical ct||tag first, then the legacy
	// tag||ct ordering as a decode-only compatibility shim.
	if pt, err := gcm.Open(nil, iv, rest, nil); err == nil {
		return nonNil(pt), nil
	}

	tag := rest[:TagSize]
	ct := rest[TagSize:]
	legacy := make([]byte, 0, len(rest))
	legacy = append(legacy, ct...)
	legacy = append(legacy, tag...)
	if pt, err := gcm.Open(nil, iv, legacy, nil); err == nil {
		return nonNil(pt), nil
	}

	return nil, domain.ErrAuthentication
}

// nonNil keeps the round-trip identity exact: sealing an empty plaintext and
// opening it yields an empty slice, never nil.
func nonNil(pt []byte) []byte {
	if pt == nil {
		return []byte{}
	}
	return pt
}

// SplitSalt strips the salt prefix from a passphrase-path envelope so the
// caller can derive the key before calling Open on the remainder.
func SplitSalt(blob []byte) (salt, rest []byte, err error) {
	if len(blob) < SaltSize+IVSize+TagSize {
		return nil, nil, domain.ErrFormat
	}
	return blob[:SaltSize], blob[SaltSize:], nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("envelope: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	return gcm, nil
}
