package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/authz"
	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/service"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

type userAdmin interface {
	ListAll(ctx context.Context) ([]*users.AdminView, error)
	UpdateFlags(ctx context.Context, adminID, userID int64, req users.UpdateFlagsRequest) (int64, error)
}

type skillAdmin interface {
	ListPending(ctx context.Context) ([]*model.Skill, error)
	Approve(ctx context.Context, adminID, skillID int64, approved bool) (int64, error)
	Deduplicate(ctx context.Context) ([]model.DuplicateGroup, error)
}

type dashboard interface {
	Stats(ctx context.Context) (*model.Stats, error)
	Report(ctx context.Context, t model.ReportType, userID *int64) (*model.Report, error)
	PostMessage(ctx context.Context, adminID int64, req *model.PostMessageRequest) (*model.AdminMessage, error)
}

// defaultLedgerLimit is how many recent entries GET /admin/ledger returns
// when no limit is given.
const defaultLedgerLimit = 50

// AdminHandler serves the admin dashboard. Each route is checked against
// an authz capability.
type AdminHandler struct {
	users     userAdmin
	skills    skillAdmin
	dashboard dashboard
	ledger    ledger.Ledger
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler. l may be nil, in which case
// the ledger routes are not mounted.
func NewAdminHandler(u userAdmin, s skillAdmin, d dashboard, l ledger.Ledger, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: u, skills: s, dashboard: d, ledger: l, logger: logger}
}

// Register mounts the /admin routes behind requireUser.
func (h *AdminHandler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	a := rg.Group("/admin", requireUser)
	{
		a.GET("/users", authz.Require(authz.ManageUsers), h.ListUsers)
		a.PATCH("/users/:id", authz.Require(authz.ManageUsers), h.UpdateUser)

		a.GET("/skills/pending", authz.Require(authz.ApproveSkills), h.ListPendingSkills)
		a.PATCH("/skills/:id", authz.Require(authz.ApproveSkills), h.ApproveSkill)
		a.POST("/skills/deduplicate", authz.Require(authz.DeduplicateSkill), h.Deduplicate)

		a.GET("/stats", authz.Require(authz.ViewStats), h.Stats)
		a.GET("/reports/:type", authz.Require(authz.DownloadReports), h.Report)
		a.POST("/messages", authz.Require(authz.BroadcastMessage), h.PostMessage)

		if h.ledger != nil {
			a.GET("/ledger", authz.Require(authz.AuditLedger), h.LedgerOverview)
			a.GET("/ledger/verify", authz.Require(authz.AuditLedger), h.VerifyLedger)
		}
	}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	out, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list users", err)
		return
	}
	if out == nil {
		out = []*users.AdminView{}
	}
	c.JSON(http.StatusOK, out)
}

// UpdateUser handles PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req users.UpdateFlagsRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.users.UpdateFlags(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeError(c, h.logger, "update user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": n})
}

// ListPendingSkills handles GET /admin/skills/pending.
func (h *AdminHandler) ListPendingSkills(c *gin.Context) {
	out, err := h.skills.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list pending skills", err)
		return
	}
	if out == nil {
		out = []*model.Skill{}
	}
	c.JSON(http.StatusOK, out)
}

// ApproveSkill handles PATCH /admin/skills/:id.
func (h *AdminHandler) ApproveSkill(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ApproveSkillRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.skills.Approve(c.Request.Context(), currentUserID(c), id, *req.IsApproved)
	if err != nil {
		writeError(c, h.logger, "approve skill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": n})
}

// Deduplicate handles POST /admin/skills/deduplicate.
func (h *AdminHandler) Deduplicate(c *gin.Context) {
	groups, err := h.skills.Deduplicate(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "deduplicate skills", err)
		return
	}
	if groups == nil {
		groups = []model.DuplicateGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"merged": len(groups), "groups": groups})
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "load stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Report handles GET /admin/reports/:type?user_id=&format=csv.
func (h *AdminHandler) Report(c *gin.Context) {
	t := model.ReportType(c.Param("type"))

	var userID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		userID = &id
	}

	rep, err := h.dashboard.Report(c.Request.Context(), t, userID)
	if err != nil {
		writeError(c, h.logger, "build report", err)
		return
	}

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, rep.Records())
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, rep); err != nil {
		writeError(c, h.logger, "write report csv", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+service.ReportFilename(t, userID)+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// PostMessage handles POST /admin/messages. The broadcast email is sent in
// the background.
func (h *AdminHandler) PostMessage(c *gin.Context) {
	var req model.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.dashboard.PostMessage(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, h.logger, "post message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": m.ID})
}

// LedgerOverview handles GET /admin/ledger?limit=. It returns the chain
// length, the root hash and the most recent entries.
func (h *AdminHandler) LedgerOverview(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultLedgerLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	count, err := h.ledger.Len(ctx)
	if err != nil {
		writeError(c, h.logger, "ledger len", err)
		return
	}
	root, err := h.ledger.Root(ctx)
	if err != nil {
		writeError(c, h.logger, "ledger root", err)
		return
	}
	entries, err := h.ledger.Recent(ctx, limit)
	if err != nil {
		writeError(c, h.logger, "ledger recent", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": count,
		"root":    root,
		"recent":  entries,
	})
}

// VerifyLedger handles GET /admin/ledger/verify and walks the whole chain.
func (h *AdminHandler) VerifyLedger(c *gin.Context) {
	if err := h.ledger.Verify(c.Request.Context()); err != nil {
		h.logger.Warn("ledger integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
