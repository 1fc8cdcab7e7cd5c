package handler_test

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxzillabong/encrypt-chat-ai/config"
	"github.com/maxzillabong/encrypt-chat-ai/internal/client"
	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
	"github.com/maxzillabong/encrypt-chat-ai/internal/handler"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/server_keystore"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/session_store"
	"github.com/maxzillabong/encrypt-chat-ai/internal/routes"
	"github.com/maxzillabong/encrypt-chat-ai/internal/service/exchange"
	"github.com/maxzillabong/encrypt-chat-ai/internal/shaping"
)

// echoRelay hands decrypted plaintext straight back, so round trips are
// byte-exact through the secure channel.
type echoRelay struct{}

func (echoRelay) Handle(_ context.Context, _ string, plaintext []byte) ([]byte, error) {
	return plaintext, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *exchange.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	keys, err := server_keystore.NewFileKeyStore(filepath.Join(t.TempDir(), "server_identity.json"))
	require.NoError(t, err)

	mgr := exchange.NewManager(keys, session_store.NewMemorySessionStore())
	legacy := exchange.NewPassphraseCodec("test passphrase")
	h := handler.NewHandler(mgr, legacy, echoRelay{})

	cfg := &config.Config{
		HSLimiter:  config.LimiterConfig{RPC: 1000, Burst: 1000, TTL: time.Minute},
		MsgLimiter: config.LimiterConfig{RPC: 1000, Burst: 1000, TTL: time.Minute},
	}

	r := gin.New()
	routes.RegisterRoutes(r, cfg, h)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mgr
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestScenario_HandshakeThenSecureRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	identity, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	cli := client.New(srv.URL, identity)
	require.NoError(t, cli.Handshake(context.Background()))
	assert.Len(t, cli.SessionID(), exchange.SessionIDLength)

	got, err := cli.Send(context.Background(), []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"hello":"world"}`), got)
}

func TestHandshake_MissingClientKey(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/handshake", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandshake_GarbageClientKey(t *testing.T) {
	srv, _ := newTestServer(t)

	// valid base64 of an off-curve point: key reconstruction fails server-side
	resp := postJSON(t, srv.URL+"/handshake", dto.HandshakeReq{
		ClientPublicKey: base64.StdEncoding.EncodeToString(make([]byte, 65)),
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body dto.InternalServerErr
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.SecureChannelMsg, body.Error)
}

func TestSecureMessage_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/secure/message", map[string]string{"payload": "ZW52"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/secure/message", map[string]string{"sessionId": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSecureMessage_UnknownSession_FlatError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/secure/message", dto.SecureMessageReq{
		SessionID: "never-handshaked-session-id-1234",
		Payload:   base64.StdEncoding.EncodeToString(make([]byte, 64)),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body dto.UnauthorizedErr
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	// never reveal whether the session or the ciphertext was the problem
	assert.Equal(t, domain.SecureChannelMsg, body.Error)
}

func TestSecureMessage_TamperedPayload_FlatError(t *testing.T) {
	srv, mgr := newTestServer(t)

	identity, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	cli := client.New(srv.URL, identity)
	require.NoError(t, cli.Handshake(context.Background()))

	sealed, err := mgr.EncryptForClient([]byte(`{"x":1}`), cli.SessionID())
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01

	resp := postJSON(t, srv.URL+"/secure/message", dto.SecureMessageReq{
		SessionID: cli.SessionID(),
		Payload:   base64.StdEncoding.EncodeToString(sealed),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body dto.UnauthorizedErr
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.SecureChannelMsg, body.Error)
}

func TestSecureMessage_ShapedRequestForm(t *testing.T) {
	srv, mgr := newTestServer(t)

	identity, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	cli := client.New(srv.URL, identity)
	require.NoError(t, cli.Handshake(context.Background()))

	sealed, err := mgr.EncryptForClient([]byte(`{"shaped":"form"}`), cli.SessionID())
	require.NoError(t, err)

	reqEnv, err := shaping.WrapRequest(base64.StdEncoding.EncodeToString(sealed), cli.SessionID())
	require.NoError(t, err)
	resp := postJSON(t, srv.URL+"/secure/message", reqEnv)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw := json.RawMessage{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	payloadB64, err := shaping.Unwrap(raw)
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(payloadB64)
	require.NoError(t, err)
	plaintext, err := mgr.DecryptFromClient(blob, cli.SessionID())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"shaped":"form"}`), plaintext)
}

func TestSecureMessage_PayloadUnderDataField(t *testing.T) {
	srv, mgr := newTestServer(t)

	identity, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	cli := client.New(srv.URL, identity)
	require.NoError(t, cli.Handshake(context.Background()))

	sealed, err := mgr.EncryptForClient([]byte(`{"old":"peer"}`), cli.SessionID())
	require.NoError(t, err)

	// older peers send the envelope under "data" with the decoy nonce still
	// occupying "signature"; the nonce must never be mistaken for the payload
	resp := postJSON(t, srv.URL+"/secure/message", map[string]string{
		"sessionId": cli.SessionID(),
		"signature": "d2a1f0c39b8e4657a1b2c3d4e5f60718",
		"data":      base64.StdEncoding.EncodeToString(sealed),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw := json.RawMessage{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	payloadB64, err := shaping.Unwrap(raw)
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(payloadB64)
	require.NoError(t, err)
	plaintext, err := mgr.DecryptFromClient(blob, cli.SessionID())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"old":"peer"}`), plaintext)
}

func TestLegacyMessage_RoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	codec := exchange.NewPassphraseCodec("test passphrase")
	sealed, err := codec.Encrypt([]byte(`{"legacy":"client"}`))
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/secure/legacy", dto.LegacyMessageReq{
		Payload: base64.StdEncoding.EncodeToString(sealed),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw := json.RawMessage{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	payloadB64, err := shaping.Unwrap(raw)
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(payloadB64)
	require.NoError(t, err)
	plaintext, err := codec.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"legacy":"client"}`), plaintext)
}

func TestLegacyMessage_WrongPassphrase_FlatError(t *testing.T) {
	srv, _ := newTestServer(t)

	sealed, err := exchange.NewPassphraseCodec("some other passphrase").Encrypt([]byte(`{"x":1}`))
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/secure/legacy", dto.LegacyMessageReq{
		Payload: base64.StdEncoding.EncodeToString(sealed),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
