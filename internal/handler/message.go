package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
	"github.com/maxzillabong/encrypt-chat-ai/internal/shaping"
)

// SecureMessage serves one session-keyed round trip: unwrap, decrypt, relay,
// encrypt, wrap. Two request forms are accepted: the plain
// {sessionId, payload} body and the shaped request envelope, whose payload
// hides under one of the historical candidate field names.
func (h *handler) SecureMessage(c *gin.Context) {
	const op = "location internal.handler.message.SecureMessage"

	raw, err := c.GetRawData()
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
		return
	}

	var req dto.SecureMessageReq
	if err := json.Unmarshal(raw, &req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
		return
	}
	if req.Payload == "" {
		// shaped form: fall through the request-side candidate field list,
		// which skips the decoy nonce under "signature"
		payload, err := shaping.UnwrapRequest(raw)
		if err != nil {
			logrus.Errorf("%s: %v", op, err)
			c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
			return
		}
		req.Payload = payload
	}

	blob := decodeOrAbort(c, req.Payload)
	if c.IsAborted() {
		logrus.Errorf("%s: invalid base64 payload", op)
		return
	}

	plaintext, err := h.exchange.DecryptFromClient(blob, req.SessionID)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeSecureError(c, err)
		return
	}

	tenantID, err := h.exchange.Tenant(req.SessionID)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeSecureError(c, err)
		return
	}

	respPlain, err := h.relay.Handle(c.Request.Context(), tenantID, plaintext)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeRelayError(c, err)
		return
	}

	sealed, err := h.exchange.EncryptForClient(respPlain, req.SessionID)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeSecureError(c, err)
		return
	}

	c.JSON(http.StatusOK, shaping.WrapResponse(encode(sealed)))
}
