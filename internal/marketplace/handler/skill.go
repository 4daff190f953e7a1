package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

// skillService is the slice of *service.SkillService used by SkillHandler.
type skillService interface {
	Propose(ctx context.Context, req *model.ProposeSkillRequest) (*model.Skill, error)
	ListApproved(ctx context.Context) ([]*model.Skill, error)
	Offer(ctx context.Context, userID int64, req *model.OfferSkillRequest) (*model.SkillOffer, error)
	Want(ctx context.Context, userID int64, req *model.WantSkillRequest) (*model.SkillWant, error)
	RemoveOffer(ctx context.Context, userID, offerID int64) (int64, error)
	RemoveWant(ctx context.Context, userID, wantID int64) (int64, error)
}

// SkillHandler serves the skill catalogue and the caller's offered and
// wanted skill lists.
type SkillHandler struct {
	svc    skillService
	logger *zap.Logger
}

// NewSkillHandler creates a new SkillHandler.
func NewSkillHandler(svc skillService, logger *zap.Logger) *SkillHandler {
	return &SkillHandler{svc: svc, logger: logger}
}

// Register mounts the skill routes.
func (h *SkillHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.GET("/skills", h.ListApproved)
	rg.POST("/skills", requireUser, h.Propose)

	us := rg.Group("/user/skills", requireUser)
	{
		us.POST("/offered", h.Offer)
		us.POST("/wanted", h.Want)
		us.DELETE("/offered/:id", h.RemoveOffer)
		us.DELETE("/wanted/:id", h.RemoveWant)
	}
}

// ListApproved handles GET /skills.
func (h *SkillHandler) ListApproved(c *gin.Context) {
	out, err := h.svc.ListApproved(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list skills", err)
		return
	}
	if out == nil {
		out = []*model.Skill{}
	}
	c.JSON(http.StatusOK, out)
}

// Propose handles POST /skills. New skills wait for admin approval.
func (h *SkillHandler) Propose(c *gin.Context) {
	var req model.ProposeSkillRequest
	if !bindJSON(c, &req) {
		return
	}
	sk, err := h.svc.Propose(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "propose skill", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sk.ID})
}

// Offer handles POST /user/skills/offered.
func (h *SkillHandler) Offer(c *gin.Context) {
	var req model.OfferSkillRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.Offer(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, h.logger, "offer skill", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": o.ID})
}

// Want handles POST /user/skills/wanted.
func (h *SkillHandler) Want(c *gin.Context) {
	var req model.WantSkillRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Want(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, h.logger, "want skill", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": w.ID})
}

// RemoveOffer handles DELETE /user/skills/offered/:id.
func (h *SkillHandler) RemoveOffer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.RemoveOffer(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, "remove offered skill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// RemoveWant handles DELETE /user/skills/wanted/:id.
func (h *SkillHandler) RemoveWant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.RemoveWant(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, "remove wanted skill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
