// Package exchange implements the server side of the key agreement: one ECDH
// step per client public key, a derived per-session AES key, and
// encrypt/decrypt under established sessions.
package exchange

import (
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/crypto/envelope"
	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

const (
	// SessionIDLength: the session identifier is this prefix of the client's
	// base64 public key. Kept for wire compatibility; deriving it from the
	// shared secret instead would change the protocol.
	SessionIDLength = 32

	// DefaultSessionMaxAge is the sweep horizon when the caller passes none.
	DefaultSessionMaxAge = 24 * time.Hour
)

// ServerKeyStore gives access to the server's long-term identity pair.
type ServerKeyStore interface {
	PrivateKey() *ecdh.PrivateKey
	PublicKeyRaw() []byte
}

// SessionStore is the table of established sessions.
type SessionStore interface {
	Save(sess domain.Session)
	Get(sessionID string) (domain.Session, bool)
	Cleanup(maxAge time.Duration) int
}

type Manager struct {
	keys     ServerKeyStore
	sessions SessionStore
}

// NewManager requires an already-loaded keystore, so a constructed Manager is
// always ready to serve handshakes. Each test or process owns its own
// instance; there is no package-level state.
func NewManager(keys ServerKeyStore, sessions SessionStore) *Manager {
	return &Manager{keys: keys, sessions: sessions}
}

// ServerPublicKey returns the raw public key, base64, for clients to consume.
func (m *Manager) ServerPublicKey() string {
	return base64.StdEncoding.EncodeToString(m.keys.PublicKeyRaw())
}

// PerformKeyExchange runs one handshake step: reconstruct the client's P-256
// point, compute the ECDH shared secret against the server's private key, and
// store SHA-256(secret) as the session key. The same client key always yields
// the same session identifier and overwrites any prior entry.
func (m *Manager) PerformKeyExchange(clientPublicKeyB64 string) (string, error) {
	const op = "location internal.service.exchange.PerformKeyExchange"

	raw, err := base64.StdEncoding.DecodeString(clientPublicKeyB64)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", domain.ErrHandshake
	}

	clientPub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", domain.ErrHandshake
	}

	shared, err := m.keys.PrivateKey().ECDH(clientPub)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", domain.ErrHandshake
	}
	key := sha256.Sum256(shared)

	sessionID := clientPublicKeyB64
	if len(sessionID) > SessionIDLength {
		sessionID = sessionID[:SessionIDLength]
	}

	m.sessions.Save(domain.Session{
		ID:        sessionID,
		Key:       key[:],
		TenantID:  domain.TenantForSession(sessionID),
		CreatedAt: time.Now(),
	})

	return sessionID, nil
}

// Tenant resolves the tenant partition for an established session.
func (m *Manager) Tenant(sessionID string) (string, error) {
	sess, ok := m.sessions.Get(sessionID)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return sess.TenantID, nil
}

// EncryptForClient seals plaintext under the session key. No salt: the key is
// already unique per session, so a salt would add nothing and change the
// on-wire layout.
func (m *Manager) EncryptForClient(plaintext []byte, sessionID string) ([]byte, error) {
	sess, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return envelope.Seal(sess.Key, plaintext)
}

// DecryptFromClient opens a session-keyed envelope.
func (m *Manager) DecryptFromClient(blob []byte, sessionID string) ([]byte, error) {
	sess, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return envelope.Open(sess.Key, blob)
}

// CleanupSessions sweeps entries older than maxAge (<=0 means the default
// 24h horizon). Not self-scheduling; the hosting process runs it.
func (m *Manager) CleanupSessions(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return m.sessions.Cleanup(maxAge)
}
