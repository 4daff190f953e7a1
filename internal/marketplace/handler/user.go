package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

// profileService is the slice of *users.UserService behind the profile
// routes.
type profileService interface {
	Search(ctx context.Context, skill, availability string) ([]*users.SearchResult, error)
	GetPublic(ctx context.Context, id int64) (*users.PublicProfile, error)
	GetOwn(ctx context.Context, id int64) (*users.OwnProfile, error)
	UpdateProfile(ctx context.Context, id int64, req users.UpdateProfileRequest) error
	UploadPhoto(ctx context.Context, id int64, filename string, r io.Reader) (string, error)
}

// ratingLister lists the ratings a user has received.
type ratingLister interface {
	ListFor(ctx context.Context, userID int64) ([]*model.RatingView, error)
}

// UserHandler serves user search, public profiles and the caller's own
// profile.
type UserHandler struct {
	profiles profileService
	ratings  ratingLister
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profiles profileService, ratings ratingLister, logger *zap.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, ratings: ratings, logger: logger}
}

// Register mounts the user routes. requireUser guards the /profile routes.
func (h *UserHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.GET("/users", h.Search)
	rg.GET("/users/:id", h.GetPublic)
	rg.GET("/users/:id/ratings", h.ListRatings)

	p := rg.Group("/profile", requireUser)
	{
		p.GET("", h.GetOwn)
		p.PUT("", h.UpdateOwn)
		p.POST("/photo", h.UploadPhoto)
	}
}

// Search handles GET /users?skill=&availability=.
func (h *UserHandler) Search(c *gin.Context) {
	out, err := h.profiles.Search(c.Request.Context(), c.Query("skill"), c.Query("availability"))
	if err != nil {
		writeError(c, h.logger, "search users", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetPublic handles GET /users/:id.
func (h *UserHandler) GetPublic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.profiles.GetPublic(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found or not public"})
			return
		}
		writeError(c, h.logger, "get user", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListRatings handles GET /users/:id/ratings.
func (h *UserHandler) ListRatings(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.ratings.ListFor(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "list ratings", err)
		return
	}
	if out == nil {
		out = []*model.RatingView{}
	}
	c.JSON(http.StatusOK, out)
}

// GetOwn handles GET /profile.
func (h *UserHandler) GetOwn(c *gin.Context) {
	p, err := h.profiles.GetOwn(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateOwn handles PUT /profile.
func (h *UserHandler) UpdateOwn(c *gin.Context) {
	var req users.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.profiles.UpdateProfile(c.Request.Context(), currentUserID(c), req); err != nil {
		writeError(c, h.logger, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadPhoto handles POST /profile/photo with a multipart "photo" field.
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo uploaded"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo uploaded"})
		return
	}
	defer f.Close()

	url, err := h.profiles.UploadPhoto(c.Request.Context(), currentUserID(c), fh.Filename, f)
	if err != nil {
		writeError(c, h.logger, "upload photo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": url})
}
