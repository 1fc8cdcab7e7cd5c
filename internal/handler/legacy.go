package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
	"github.com/maxzillabong/encrypt-chat-ai/internal/shaping"
)

// legacyTenant buckets conversations and memories for passphrase-path
// callers. The identifier is a placeholder: every passphrase peer shares one
// key, so it carries no cryptographic meaning.
var legacyTenant = domain.TenantForSession("legacy-shared")

// LegacyMessage is the fallback path for peers that never performed a
// handshake: the envelope carries its own salt and decrypts under the shared
// passphrase-derived key.
func (h *handler) LegacyMessage(c *gin.Context) {
	const op = "location internal.handler.legacy.LegacyMessage"

	raw, err := c.GetRawData()
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
		return
	}

	var req dto.LegacyMessageReq
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
		return
	}
	if req.Payload == "" {
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

	plaintext, err := h.legacy.Decrypt(blob)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeSecureError(c, err)
		return
	}

	respPlain, err := h.relay.Handle(c.Request.Context(), legacyTenant, plaintext)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeRelayError(c, err)
		return
	}

	sealed, err := h.legacy.Encrypt(respPlain)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		writeSecureError(c, err)
		return
	}

	c.JSON(http.StatusOK, shaping.WrapResponse(encode(sealed)))
}
