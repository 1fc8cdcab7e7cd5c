package domain

import "errors"

var (
	// ErrFormat: the envelope is structurally broken (too short, bad base64).
	ErrFormat = errors.New("malformed envelope")

	// ErrAuthentication: the AEAD tag did not verify — tampering or wrong key.
	ErrAuthentication = errors.New("envelope authentication failed")

	// ErrSessionNotFound covers both "handshake never happened" and
	// "session expired/evicted".
	ErrSessionNotFound = errors.New("session not found")

	// ErrHandshake: the peer public key is malformed or off-curve.
	ErrHandshake = errors.New("handshake failed")

	// ErrMissingPayload: none of the recognized payload field names were present.
	ErrMissingPayload = errors.New("no payload field in shaped response")
)

// SecureChannelMsg is the flat message returned to callers for every
// crypto/session failure. Never distinguish "invalid tag" from "unknown
// session" on the wire — that distinction is an oracle.
const SecureChannelMsg = "secure channel error"
