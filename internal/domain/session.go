package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session binds one established secure channel to its symmetric key.
// The key is immutable once created; entries are only ever inserted or
// deleted as a whole.
type Session struct {
	ID        string
	Key       []byte // 32 bytes, SHA-256 of the raw ECDH shared secret
	TenantID  string
	CreatedAt time.Time
}

// TenantForSession maps a session identifier to the tenant that scopes its
// persisted conversations and memories. Deterministic and 1:1; hashing keeps
// raw public-key material out of storage keys.
func TenantForSession(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:16])
}
