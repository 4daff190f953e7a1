package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/identity"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

// accountService is the slice of *users.UserService used for sign-up and
// sign-in.
type accountService interface {
	Register(ctx context.Context, req users.RegisterRequest) (*users.User, error)
	Login(ctx context.Context, username, password string) (*users.User, error)
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	accounts accountService
	tokens   *identity.UserTokenIssuer
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts accountService, tokens *identity.UserTokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, logger: logger}
}

// Register mounts the auth routes.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
}

// SignUp handles POST /register.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req users.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID})
}

// Login handles POST /login and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req users.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "This user is banned by admin."})
		case errors.Is(err, users.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		default:
			writeError(c, h.logger, "login", err)
		}
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		h.logger.Error("issue user token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u.Summary()})
}
