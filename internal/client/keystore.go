// Identity persistence for one client: a long-lived P-256 pair stored as JWK
// JSON in a local bbolt database under a fixed record key. The private half is
// written in extractable form; protecting the database file is the caller's
// trust boundary.
package client

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	identityBucket = "identity"
	identityRecord = "keypair"
)

// jwk is the portable JSON key format for a P-256 point, coordinates
// base64url without padding. d is present only in the private half.
type jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d,omitempty"`
}

type identityRecordJSON struct {
	PublicKey  jwk   `json:"publicKey"`
	PrivateKey jwk   `json:"privateKey"`
	CreatedAt  int64 `json:"createdAt"` // epoch millis
}

// IdentityKeyStore persists one client identity across process restarts.
type IdentityKeyStore struct {
	db *bolt.DB
}

func OpenIdentityKeyStore(path string) (*IdentityKeyStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("client: open keystore %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(identityBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("client: init keystore: %w", err)
	}
	return &IdentityKeyStore{db: db}, nil
}

func (ks *IdentityKeyStore) Close() error {
	return ks.db.Close()
}

// GetOrCreate loads the stored identity, generating and persisting a fresh
// P-256 pair on first use. The pair is never rotated automatically.
func (ks *IdentityKeyStore) GetOrCreate() (*ecdh.PrivateKey, error) {
	var stored []byte
	ks.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(identityBucket)).Get([]byte(identityRecord)); v != nil {
			stored = make([]byte, len(v))
			copy(stored, v)
		}
		return nil
	})

	if stored != nil {
		return unmarshalIdentity(stored)
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("client: generate identity: %w", err)
	}

	raw, err := marshalIdentity(priv)
	if err != nil {
		return nil, err
	}
	if err := ks.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(identityBucket)).Put([]byte(identityRecord), raw)
	}); err != nil {
		return nil, fmt.Errorf("client: persist identity: %w", err)
	}
	return priv, nil
}

func marshalIdentity(priv *ecdh.PrivateKey) ([]byte, error) {
	pub := priv.PublicKey().Bytes() // uncompressed point: 0x04 || x || y
	if len(pub) != 65 {
		return nil, fmt.Errorf("client: unexpected public key length %d", len(pub))
	}
	b64 := base64.RawURLEncoding
	pubJWK := jwk{
		Kty: "EC",
		Crv: "P-256",
		X:   b64.EncodeToString(pub[1:33]),
		Y:   b64.EncodeToString(pub[33:65]),
	}
	privJWK := pubJWK
	privJWK.D = b64.EncodeToString(priv.Bytes())

	return json.Marshal(identityRecordJSON{
		PublicKey:  pubJWK,
		PrivateKey: privJWK,
		CreatedAt:  time.Now().UnixMilli(),
	})
}

func unmarshalIdentity(raw []byte) (*ecdh.PrivateKey, error) {
	var rec identityRecordJSON
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("client: parse identity record: %w", err)
	}
	if rec.PrivateKey.Kty != "EC" || rec.PrivateKey.Crv != "P-256" {
		return nil, fmt.Errorf("client: unsupported key type %s/%s", rec.PrivateKey.Kty, rec.PrivateKey.Crv)
	}
	d, err := base64.RawURLEncoding.DecodeString(rec.PrivateKey.D)
	if err != nil {
		return nil, fmt.Errorf("client: decode private scalar: %w", err)
	}
	priv, err := ecdh.P256().NewPrivateKey(d)
	if err != nil {
		return nil, fmt.Errorf("client: reconstruct private key: %w", err)
	}
	return priv, nil
}

// ExportPublicRaw returns a public key in uncompressed point encoding, base64.
func ExportPublicRaw(priv *ecdh.PrivateKey) string {
	return base64.StdEncoding.EncodeToString(priv.PublicKey().Bytes())
}

// ImportPeerPublicRaw is the inverse: a peer's base64 raw point to a key handle.
func ImportPeerPublicRaw(b64 string) (*ecdh.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("client: decode peer public key: %w", err)
	}
	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("client: parse peer public key: %w", err)
	}
	return pub, nil
}
