// Package server_keystore owns the server's long-term P-256 identity.
// The key file is the server's identity across restarts; losing it
// invalidates any client that pinned the old public key.
package server_keystore

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// keyFile is the persisted form: raw uncompressed point for the public half,
// PKCS8 DER for the private half, both base64.
type keyFile struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type FileKeyStore struct {
	priv *ecdh.PrivateKey
	path string
}

// NewFileKeyStore loads the identity pair from path, or generates a fresh
// P-256 pair and persists it when the file is absent or unreadable as a key.
func NewFileKeyStore(path string) (*FileKeyStore, error) {
	ks := &FileKeyStore{path: path}

	if priv, err := loadKeyFile(path); err == nil {
		ks.priv = priv
		return ks, nil
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("server_keystore: generate identity: %w", err)
	}
	if err := saveKeyFile(path, priv); err != nil {
		return nil, err
	}
	ks.priv = priv
	return ks, nil
}

// PrivateKey returns the loaded identity key. It never leaves this process.
func (ks *FileKeyStore) PrivateKey() *ecdh.PrivateKey {
	return ks.priv
}

// PublicKeyRaw returns the public half in uncompressed point encoding.
func (ks *FileKeyStore) PublicKeyRaw() []byte {
	return ks.priv.PublicKey().Bytes()
}

func loadKeyFile(path string) (*ecdh.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("server_keystore: parse key file %s: %w", path, err)
	}

	der, err := base64.StdEncoding.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("server_keystore: decode private key: %w", err)
	}

	keyIfc, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("server_keystore: parse PKCS8: %w", err)
	}

	// EC keys come back from PKCS8 as *ecdsa.PrivateKey; convert.
	switch k := keyIfc.(type) {
	case *ecdh.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		priv, err := k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("server_keystore: key is not ECDH-capable: %w", err)
		}
		return priv, nil
	default:
		return nil, fmt.Errorf("server_keystore: unexpected key type %T", keyIfc)
	}
}

func saveKeyFile(path string, priv *ecdh.PrivateKey) error {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("server_keystore: marshal PKCS8: %w", err)
	}

	kf := keyFile{
		PublicKey:  base64.StdEncoding.EncodeToString(priv.PublicKey().Bytes()),
		PrivateKey: base64.StdEncoding.EncodeToString(der),
	}
	raw, err := json.Marshal(kf)
	if err != nil {
		return fmt.Errorf("server_keystore: marshal key file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("server_keystore: create key dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("server_keystore: write key file: %w", err)
	}
	return nil
}
