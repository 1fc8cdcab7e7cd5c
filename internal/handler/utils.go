package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
	"github.com/maxzillabong/encrypt-chat-ai/internal/dto"
	"github.com/maxzillabong/encrypt-chat-ai/internal/service/relay"
)

func decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		logrus.Errorf("base64 decode error: %s", err)
		return nil, err
	}
	return b, nil
}

// decodeOrAbort decodes a base64 string and aborts the handler with a flat
// 401 on failure. Bad base64 in a payload slot gets the same opaque answer as
// a bad tag — no decode/verify distinction for the caller.
func decodeOrAbort(c *gin.Context, s string) []byte {
	b, err := decode(s)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.UnauthorizedErr{Error: domain.SecureChannelMsg})
		c.Abort()
		return nil
	}
	return b
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func handleBindError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = fmt.Sprintf("must satisfy %s", fe.Tag())
		}
		logrus.WithError(err).Warn(out)
		c.JSON(http.StatusBadRequest, gin.H{"errors": out})
		return
	}

	logrus.WithError(err).Warn("invalid request data")
	c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
}

// writeSecureError maps every secure-channel failure to the same flat
// message. Format, tag, and session failures are deliberately
// indistinguishable to the caller.
func writeSecureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrFormat),
		errors.Is(err, domain.ErrAuthentication),
		errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, dto.UnauthorizedErr{Error: domain.SecureChannelMsg})
	default:
		// key reconstruction/ECDH failure and anything unclassified:
		// 500-class, same flat message
		c.JSON(http.StatusInternalServerError, dto.InternalServerErr{Error: domain.SecureChannelMsg})
	}
}

// writeRelayError maps business-logic failures after a successful decrypt.
func writeRelayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relay.ErrUnknownRequest), errors.Is(err, relay.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, dto.BadRequestErr{Error: "invalid request data"})
	default:
		c.JSON(http.StatusInternalServerError, dto.InternalServerErr{Error: "upstream failure"})
	}
}
