// Package shaping disguises encrypted envelopes as analytics API traffic.
//
// The decoy fields are cover only. The field literally named "signature" on
// the request side is a random nonce, not an integrity mechanism; the AEAD
// tag inside the envelope is the only real integrity check.
package shaping

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

// responsePayloadFields is the ordered candidate list for received responses.
// Field names changed across protocol generations; both ends must
// interoperate, so readers fall through the list and writers emit the first
// two.
var responsePayloadFields = []string{"signature", "payload", "data"}

// requestPayloadFields is the candidate list for received requests.
// "signature" is excluded: on the request side that field always carries the
// decoy nonce, never the envelope.
var requestPayloadFields = []string{"payload", "data"}

const apiVersion = "2.3"

// ShapedResponse is the outbound decoy shell around one base64 envelope.
type ShapedResponse struct {
	Status    string        `json:"status"`
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
	Results   []decoyResult `json:"results"`
	Meta      decoyMeta     `json:"meta"`
	Signature string        `json:"signature"`
	// duplicate of Signature during the field-name transition
	Payload string `json:"payload"`
}

type decoyResult struct {
	Series string  `json:"series"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
	Delta  float64 `json:"delta"`
}

type decoyMeta struct {
	ProcessingTimeMS int  `json:"processing_time_ms"`
	CacheHit         bool `json:"cache_hit"`
}

var decoySeries = []string{
	"api.requests", "cache.hits", "latency.p95", "throughput.rps", "errors.rate",
}

// WrapResponse builds the decoy shell around an already-encoded envelope.
func WrapResponse(envelopeB64 string) ShapedResponse {
	n := 2 + mrand.Intn(3) // 2..4 fabricated records
	results := make([]decoyResult, n)
	for i := range results {
		results[i] = decoyResult{
			Series: decoySeries[mrand.Intn(len(decoySeries))],
			Value:  float64(mrand.Intn(10000)) / 10,
			Count:  1 + mrand.Intn(5000),
			Delta:  float64(mrand.Intn(200)-100) / 100,
		}
	}

	return ShapedResponse{
		Status:    "ok",
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   results,
		Meta: decoyMeta{
			ProcessingTimeMS: 5 + mrand.Intn(120),
			CacheHit:         mrand.Intn(2) == 0,
		},
		Signature: envelopeB64,
		Payload:   envelopeB64,
	}
}

// Unwrap extracts the real payload from a received shaped response by trying
// the candidate field names in order. Returns domain.ErrMissingPayload when
// none are present.
func Unwrap(raw []byte) (string, error) {
	return unwrap(raw, responsePayloadFields)
}

// UnwrapRequest is the request-side counterpart of Unwrap. It never reads
// "signature", which holds the decoy nonce on requests.
func UnwrapRequest(raw []byte) (string, error) {
	return unwrap(raw, requestPayloadFields)
}

func unwrap(raw []byte, candidates []string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("shaping: not a JSON object: %w", err)
	}

	for _, name := range candidates {
		val, ok := fields[name]
		if !ok {
			continue
		}
		var payload string
		if err := json.Unmarshal(val, &payload); err != nil {
			continue // decoy or non-string occupant of a candidate name
		}
		if payload != "" {
			return payload, nil
		}
	}
	return "", domain.ErrMissingPayload
}

// RequestEnvelope is the client-side shell: version, MIME-ish content type,
// request id, and a random hex nonce under "signature".
type RequestEnvelope struct {
	Version     string `json:"version"`
	ContentType string `json:"content_type"`
	Timestamp   string `json:"timestamp"`
	RequestID   string `json:"request_id"`
	Signature   string `json:"signature"`
	SessionID   string `json:"sessionId,omitempty"`
	Payload     string `json:"payload"`
}

// WrapRequest builds the request shell around an encoded envelope.
func WrapRequest(envelopeB64, sessionID string) (RequestEnvelope, error) {
	nonce, err := hexNonce(16)
	if err != nil {
		return RequestEnvelope{}, fmt.Errorf("shaping: nonce: %w", err)
	}
	return RequestEnvelope{
		Version:     apiVersion,
		ContentType: "application/vnd.api+json",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		RequestID:   uuid.NewString(),
		Signature:   nonce,
		SessionID:   sessionID,
		Payload:     envelopeB64,
	}, nil
}

// TelemetryHeaders returns headers that read as generic API telemetry.
func TelemetryHeaders(clientVersion string) http.Header {
	h := http.Header{}
	h.Set("X-Request-ID", uuid.NewString())
	h.Set("X-Correlation-ID", uuid.NewString())
	h.Set("X-API-Version", apiVersion)
	h.Set("X-Client-Version", clientVersion)
	h.Set("X-Timestamp", time.Now().UTC().Format(time.RFC3339))
	return h
}

func hexNonce(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
