package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/identity"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/repository"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/service"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

// writeError maps a service error to its HTTP status. Anything unrecognised
// is logged and reported as a 500 naming op.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var valErr *model.ErrValidation
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotEligible),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, users.ErrDuplicateUsername),
		errors.Is(err, users.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

// paramID parses a positive integer path parameter, writing a 400 when it
// is malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// currentUserID returns the authenticated user's id. The route must be
// mounted behind identity.RequireUserToken.
func currentUserID(c *gin.Context) int64 {
	if claims := identity.UserClaimsFromCtx(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// bindJSON decodes the body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
