package shaping_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
	"github.com/maxzillabong/encrypt-chat-ai/internal/shaping"
)

func TestWrapResponse_Shape(t *testing.T) {
	resp := shaping.WrapResponse("ZW52ZWxvcGU=")

	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
	assert.GreaterOrEqual(t, len(resp.Results), 2)
	assert.LessOrEqual(t, len(resp.Results), 4)
	assert.Equal(t, "ZW52ZWxvcGU=", resp.Signature)
	// legacy duplicate for the field-name transition
	assert.Equal(t, "ZW52ZWxvcGU=", resp.Payload)
}

func TestUnwrap_CandidateOrder(t *testing.T) {
	for _, field := range []string{"signature", "payload", "data"} {
		raw, err := json.Marshal(map[string]any{
			"status": "ok",
			field:    "cGF5bG9hZA==",
		})
		require.NoError(t, err)

		got, err := shaping.Unwrap(raw)
		require.NoError(t, err, "field %s", field)
		assert.Equal(t, "cGF5bG9hZA==", got)
	}
}

func TestUnwrap_WrappedResponseRoundTrip(t *testing.T) {
	raw, err := json.Marshal(shaping.WrapResponse("cmVhbA=="))
	require.NoError(t, err)

	got, err := shaping.Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, "cmVhbA==", got)
}

func TestUnwrap_FallsThroughNonStringCandidate(t *testing.T) {
	// a reader that knows only later names must still find the payload when
	// an earlier candidate is occupied by a non-string decoy
	raw := []byte(`{"signature":{"alg":"none"},"payload":"aGlkZGVu"}`)

	got, err := shaping.Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, "aGlkZGVu", got)
}

func TestUnwrap_MissingPayload(t *testing.T) {
	raw := []byte(`{"status":"ok","results":[{"series":"api.requests","value":12.5}]}`)

	_, err := shaping.Unwrap(raw)
	assert.ErrorIs(t, err, domain.ErrMissingPayload)
}

func TestUnwrap_NotJSON(t *testing.T) {
	_, err := shaping.Unwrap([]byte("not json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMissingPayload)
}

func TestUnwrapRequest_SkipsDecoySignature(t *testing.T) {
	// on the request side "signature" always carries the hex nonce; a peer
	// that places the envelope only under "data" must still be understood
	raw := []byte(`{"signature":"d2a1f0c39b8e4657a1b2c3d4e5f60718","data":"aGlkZGVu"}`)

	got, err := shaping.UnwrapRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "aGlkZGVu", got)
}

func TestUnwrapRequest_PayloadPreferredOverData(t *testing.T) {
	raw := []byte(`{"payload":"Zmlyc3Q=","data":"c2Vjb25k"}`)

	got, err := shaping.UnwrapRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "Zmlyc3Q=", got)
}

func TestUnwrapRequest_NonceOnly(t *testing.T) {
	raw := []byte(`{"signature":"d2a1f0c39b8e4657a1b2c3d4e5f60718"}`)

	_, err := shaping.UnwrapRequest(raw)
	assert.ErrorIs(t, err, domain.ErrMissingPayload)
}

func TestWrapRequest(t *testing.T) {
	req, err := shaping.WrapRequest("ZW52", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "ZW52", req.Payload)
	assert.Equal(t, "sess-1", req.SessionID)
	assert.NotEmpty(t, req.RequestID)
	assert.NotEmpty(t, req.Timestamp)
	// decoy nonce, 16 random bytes hex-encoded, distinct from the payload
	assert.Len(t, req.Signature, 32)
	assert.NotEqual(t, req.Payload, req.Signature)
}

func TestTelemetryHeaders(t *testing.T) {
	h := shaping.TelemetryHeaders("1.4.2")

	for _, name := range []string{
		"X-Request-ID", "X-Correlation-ID", "X-API-Version", "X-Client-Version", "X-Timestamp",
	} {
		assert.NotEmpty(t, h.Get(name), name)
	}
	assert.Equal(t, "1.4.2", h.Get("X-Client-Version"))
}
