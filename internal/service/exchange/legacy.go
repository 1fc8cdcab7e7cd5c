package exchange

import (
	"github.com/maxzillabong/encrypt-chat-ai/internal/crypto/envelope"
	"github.com/maxzillabong/encrypt-chat-ai/internal/crypto/passkdf"
)

// PassphraseCodec is the fallback path when no handshake has occurred: one
// shared passphrase, key re-derived per message from the salt that travels
// with the ciphertext.
type PassphraseCodec struct {
	passphrase string
}

func NewPassphraseCodec(passphrase string) *PassphraseCodec {
	return &PassphraseCodec{passphrase: passphrase}
}

// Encrypt seals plaintext under a freshly salted passphrase key:
// salt || iv || ciphertext || tag.
func (p *PassphraseCodec) Encrypt(plaintext []byte) ([]byte, error) {
	salt, err := passkdf.NewSalt()
	if err != nil {
		return nil, err
	}
	key, err := passkdf.Derive(p.passphrase, salt)
	if err != nil {
		return nil, err
	}
	return envelope.SealWithSalt(key, salt, plaintext)
}

// Decrypt re-derives the key from the carried salt and opens the remainder.
func (p *PassphraseCodec) Decrypt(blob []byte) ([]byte, error) {
	salt, rest, err := envelope.SplitSalt(blob)
	if err != nil {
		return nil, err
	}
	key, err := passkdf.Derive(p.passphrase, salt)
	if err != nil {
		return nil, err
	}
	return envelope.Open(key, rest)
}
