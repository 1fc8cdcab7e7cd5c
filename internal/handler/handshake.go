package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
)

// Handshake performs one key-exchange step: the client's raw P-256 public key
// comes in base64, the server's public key and the session identifier go back.
func (h *handler) Handshake(c *gin.Context) {
	const op = "location internal.handler.handshake.Handshake"

	var req dto.HandshakeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	sessionID, err := h.exchange.PerformKeyExchange(req.ClientPublicKey)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		// flag for the attempt limiter
		c.Set("failed_handshake", true)
		writeSecureError(c, err)
		return
	}

	logrus.Infof("established session %s", sessionID)

	c.JSON(http.StatusOK, dto.HandshakeResp{
		ServerPublicKey: h.exchange.ServerPublicKey(),
		SessionID:       sessionID,
	})
}
