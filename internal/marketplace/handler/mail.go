package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/authz"
	"go.uber.org/zap"
)

// mailForwarder relays a raw send request to the mail service.
// *mailer.Client satisfies it.
type mailForwarder interface {
	Forward(ctx context.Context, body []byte) (int, []byte, error)
}

// MailProxyHandler passes notice requests through to the mail service.
type MailProxyHandler struct {
	client mailForwarder
	logger *zap.Logger
}

// NewMailProxyHandler creates a new MailProxyHandler.
func NewMailProxyHandler(client mailForwarder, logger *zap.Logger) *MailProxyHandler {
	return &MailProxyHandler{client: client, logger: logger}
}

// Register mounts POST /mail/send for admins.
func (h *MailProxyHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.POST("/mail/send", requireUser, authz.Require(authz.SendMail), h.Send)
}

// Send handles POST /mail/send. The mail service's status and body are
// relayed unchanged.
func (h *MailProxyHandler) Send(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	status, resp, err := h.client.Forward(c.Request.Context(), body)
	if err != nil {
		h.logger.Error("mail proxy", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email", "details": err.Error()})
		return
	}
	c.Data(status, "application/json", resp)
}
