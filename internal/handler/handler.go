package handler

import "context"

// Exchange is the key-agreement and session-crypto surface.
type Exchange interface {
	ServerPublicKey() string
	PerformKeyExchange(clientPublicKeyB64 string) (sessionID string, err error)
	Tenant(sessionID string) (string, error)
	EncryptForClient(plaintext []byte, sessionID string) ([]byte, error)
	DecryptFromClient(blob []byte, sessionID string) ([]byte, error)
}

// LegacyCodec encrypts/decrypts under the shared passphrase-derived key.
type LegacyCodec interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// Relay handles one decrypted request and returns the plaintext response.
type Relay interface {
	Handle(ctx context.Context, tenantID string, plaintext []byte) ([]byte, error)
}

type handler struct {
	exchange Exchange
	legacy   LegacyCodec
	relay    Relay
}

func NewHandler(exchange Exchange, legacy LegacyCodec, relay Relay) *handler {
	return &handler{exchange: exchange, legacy: legacy, relay: relay}
}
