package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

type ratingSubmitter interface {
	Submit(ctx context.Context, raterID int64, req *model.SubmitRatingRequest) (*model.Rating, error)
}

// RatingHandler accepts ratings for completed swaps.
type RatingHandler struct {
	svc    ratingSubmitter
	logger *zap.Logger
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(svc ratingSubmitter, logger *zap.Logger) *RatingHandler {
	return &RatingHandler{svc: svc, logger: logger}
}

// Register mounts POST /ratings behind requireUser.
func (h *RatingHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.POST("/ratings", requireUser, h.Submit)
}

// Submit handles POST /ratings.
func (h *RatingHandler) Submit(c *gin.Context) {
	var req model.SubmitRatingRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Submit(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, h.logger, "submit rating", err)
		return
	}
	ratingsTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"id": r.ID})
}
