// Package mailer is the notice mail service. It renders one of the fixed
// HTML notices and sends it through an email.Sender. The marketplace server
// reaches it through Client.
package mailer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/email"
	"go.uber.org/zap"
)

// SendRequest is the body of POST /MailSystem/send. Field matching is
// case-insensitive, so "email" and "Email" both bind.
type SendRequest struct {
	Email       string `json:"Email"`
	Type        string `json:"Type"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
}

// Handler serves the notice mail endpoint.
type Handler struct {
	sender  email.Sender
	metrics func(kind string, ok bool)
	logger  *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(sender email.Sender, logger *zap.Logger) *Handler {
	return &Handler{sender: sender, logger: logger}
}

// SetMetricsRecorder registers a callback invoked after every send attempt.
func (h *Handler) SetMetricsRecorder(fn func(kind string, ok bool)) {
	h.metrics = fn
}

// Register mounts the mail routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/MailSystem/send", h.Send)
}

// Send handles POST /MailSystem/send.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and Type are required."})
		return
	}
	kind, ok := email.ParseNoticeKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message type."})
		return
	}

	msg, err := email.Notice(kind, req.Email, req.Title, req.Description)
	if err != nil {
		h.logger.Error("render notice", zap.String("type", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render email"})
		return
	}

	err = h.sender.Send(c.Request.Context(), msg)
	if h.metrics != nil {
		h.metrics(string(kind), err == nil)
	}
	if err != nil {
		h.logger.Error("send notice", zap.String("type", string(kind)), zap.String("to", req.Email), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send email"})
		return
	}

	h.logger.Info("notice sent", zap.String("type", string(kind)), zap.String("to", req.Email))
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully."})
}
