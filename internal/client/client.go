package client

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maxzillabong/encrypt-chat-ai/internal/crypto/envelope"
	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
	"github.com/maxzillabong/encrypt-chat-ai/internal/shaping"
)

const clientVersion = "1.4.2"

// Client speaks the secure session protocol against one relay server.
type Client struct {
	baseURL  string
	http     *http.Client
	identity *ecdh.PrivateKey

	sessionID  string
	sessionKey []byte
}

func New(baseURL string, identity *ecdh.PrivateKey) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 90 * time.Second},
		identity: identity,
	}
}

// Handshake sends our raw public key and derives the session key from the
// server's reply. Both sides hash the same ECDH point, so the keys match
// without the secret ever crossing the wire.
func (c *Client) Handshake(ctx context.Context) error {
	body, err := json.Marshal(dto.HandshakeReq{
		ClientPublicKey: ExportPublicRaw(c.identity),
	})
	if err != nil {
		return err
	}

	respBody, status, err := c.post(ctx, "/handshake", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("client: handshake rejected with status %d", status)
	}

	var resp dto.HandshakeResp
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("client: parse handshake response: %w", err)
	}

	serverPub, err := ImportPeerPublicRaw(resp.ServerPublicKey)
	if err != nil {
		return err
	}
	shared, err := c.identity.ECDH(serverPub)
	if err != nil {
		return fmt.Errorf("client: ECDH: %w", err)
	}
	key := sha256.Sum256(shared)

	c.sessionID = resp.SessionID
	c.sessionKey = key[:]
	return nil
}

// SessionID returns the identifier from the last successful handshake.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send encrypts one request plaintext, wraps it in the shaped request
// envelope, and returns the decrypted response plaintext.
func (c *Client) Send(ctx context.Context, plaintext []byte) ([]byte, error) {
	if c.sessionKey == nil {
		return nil, fmt.Errorf("client: no session, run Handshake first")
	}

	sealed, err := envelope.Seal(c.sessionKey, plaintext)
	if err != nil {
		return nil, err
	}

	reqEnv, err := shaping.WrapRequest(base64.StdEncoding.EncodeToString(sealed), c.sessionID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(reqEnv)
	if err != nil {
		return nil, err
	}

	respBody, status, err := c.post(ctx, "/secure/message", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("client: message rejected with status %d", status)
	}

	payloadB64, err := shaping.Unwrap(respBody)
	if err != nil {
		return nil, err
	}
	blob, err := base64.StdEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("client: decode response payload: %w", err)
	}
	return envelope.Open(c.sessionKey, blob)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range shaping.TelemetryHeaders(clientVersion) {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("client: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("client: read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
