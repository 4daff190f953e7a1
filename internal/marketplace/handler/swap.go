package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

// swapService is the slice of *service.SwapService used by SwapHandler.
type swapService interface {
	Create(ctx context.Context, requesterID int64, req *model.CreateSwapRequest) (*model.Swap, error)
	List(ctx context.Context, actorID int64) ([]*model.SwapView, error)
	Get(ctx context.Context, swapID, actorID int64) (*model.Swap, error)
	TransitionStatus(ctx context.Context, swapID, actorID int64, to model.SwapStatus) (int64, error)
	Delete(ctx context.Context, swapID, actorID int64) (int64, error)
	UpdateProgress(ctx context.Context, swapID, actorID int64, u model.ProgressUpdate) (int64, error)
}

// SwapHandler serves swap requests between two users. Every route requires
// a signed-in user.
type SwapHandler struct {
	svc    swapService
	logger *zap.Logger
}

// NewSwapHandler creates a new SwapHandler.
func NewSwapHandler(svc swapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{svc: svc, logger: logger}
}

// Register mounts the swap routes behind requireUser.
func (h *SwapHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	s := rg.Group("/swaps", requireUser)
	{
		s.POST("", h.Create)
		s.GET("", h.List)
		s.GET("/:id", h.Get)
		s.PATCH("/:id", h.UpdateStatus)
		s.DELETE("/:id", h.Delete)
		s.PATCH("/:id/progress", h.UpdateProgress)
	}
}

// Create handles POST /swaps.
func (h *SwapHandler) Create(c *gin.Context) {
	var req model.CreateSwapRequest
	if !bindJSON(c, &req) {
		return
	}
	sw, err := h.svc.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, h.logger, "create swap", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sw.ID})
}

// List handles GET /swaps, returning every swap the caller is part of.
func (h *SwapHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, "list swaps", err)
		return
	}
	if out == nil {
		out = []*model.SwapView{}
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /swaps/:id.
func (h *SwapHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sw, err := h.svc.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, h.logger, "get swap", err)
		return
	}
	c.JSON(http.StatusOK, sw)
}

// UpdateStatus handles PATCH /swaps/:id. A transition whose precondition no
// longer holds reports zero changes.
func (h *SwapHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateSwapStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.svc.TransitionStatus(c.Request.Context(), id, currentUserID(c), req.Status)
	if err != nil {
		writeError(c, h.logger, "update swap status", err)
		return
	}
	recordSwapTransition(string(req.Status), n > 0)
	c.JSON(http.StatusOK, gin.H{"changes": n})
}

// Delete handles DELETE /swaps/:id. Only the requester's pending swaps are
// removed.
func (h *SwapHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.Delete(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, h.logger, "delete swap", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// UpdateProgress handles PATCH /swaps/:id/progress.
func (h *SwapHandler) UpdateProgress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ProgressUpdate
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.svc.UpdateProgress(c.Request.Context(), id, currentUserID(c), req)
	if err != nil {
		writeError(c, h.logger, "update swap progress", err)
		return
	}
	if n > 0 {
		progressUpdatesTotal.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"changes": n})
}
