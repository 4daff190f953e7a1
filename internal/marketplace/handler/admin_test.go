package handler_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/handler"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

type stubUserAdmin struct {
	mu    sync.Mutex
	flags map[int64]users.UpdateFlagsRequest
}

func (s *stubUserAdmin) ListAll(context.Context) ([]*users.AdminView, error) {
	return nil, nil
}

func (s *stubUserAdmin) UpdateFlags(_ context.Context, _, userID int64, req users.UpdateFlagsRequest) (int64, error) {
	if req.IsBanned == nil && req.IsAdmin == nil {
		return 0, &model.ErrValidation{Msg: "No valid updates provided"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[userID] = req
	return 1, nil
}

type stubSkillAdmin struct {
	approved map[int64]bool
}

func (s *stubSkillAdmin) ListPending(context.Context) ([]*model.Skill, error) {
	return []*model.Skill{{ID: 4, Name: "Welding"}}, nil
}

func (s *stubSkillAdmin) Approve(_ context.Context, _, skillID int64, approved bool) (int64, error) {
	s.approved[skillID] = approved
	return 1, nil
}

func (s *stubSkillAdmin) Deduplicate(context.Context) ([]model.DuplicateGroup, error) {
	return []model.DuplicateGroup{{Name: "go", CanonicalID: 1, DuplicateIDs: []int64{5}}}, nil
}

type stubDashboard struct {
	posted []*model.PostMessageRequest
}

func (s *stubDashboard) Stats(context.Context) (*model.Stats, error) {
	return &model.Stats{TotalUsers: 3, ActiveUsers: 2, TotalSkills: 5, PendingSkills: 1}, nil
}

func (s *stubDashboard) Report(_ context.Context, t model.ReportType, _ *int64) (*model.Report, error) {
	if !t.Valid() {
		return nil, &model.ErrValidation{Msg: "Invalid report type"}
	}
	rep := &model.Report{
		Type:    t,
		Columns: []string{"id", "username", "rater_id", "rating"},
		Rows:    [][]any{{int64(1), "alice", int64(2), 5}},
	}
	return rep.WithoutIDColumns(), nil
}

func (s *stubDashboard) PostMessage(_ context.Context, adminID int64, req *model.PostMessageRequest) (*model.AdminMessage, error) {
	s.posted = append(s.posted, req)
	return &model.AdminMessage{ID: int64(len(s.posted)), AdminID: adminID, Title: req.Title, Message: req.Message}, nil
}

type adminFixture struct {
	srv       *testServer
	users     *stubUserAdmin
	skills    *stubSkillAdmin
	dashboard *stubDashboard
	ledger    *ledger.MemoryLedger
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{
		users:     &stubUserAdmin{flags: make(map[int64]users.UpdateFlagsRequest)},
		skills:    &stubSkillAdmin{approved: make(map[int64]bool)},
		dashboard: &stubDashboard{},
		ledger:    ledger.NewMemory(),
	}
	f.srv = newTestServer(t, handler.NewAdminHandler(f.users, f.skills, f.dashboard, f.ledger, zap.NewNop()))
	return f
}

func TestAdminRoutes_forbiddenForUsers(t *testing.T) {
	f := newAdminFixture(t)
	user := f.srv.token(2, false)
	for _, path := range []string{
		"/api/admin/users", "/api/admin/skills/pending", "/api/admin/stats",
		"/api/admin/reports/users", "/api/admin/ledger",
	} {
		if w := f.srv.do(http.MethodGet, path, user, nil); w.Code != http.StatusForbidden {
			t.Errorf("GET %s as user: status %d, want 403", path, w.Code)
		}
	}
	wantStatus(t, f.srv.do(http.MethodGet, "/api/admin/stats", "", nil), http.StatusUnauthorized)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newAdminFixture(t)
	admin := f.srv.token(1, true)

	w := f.srv.do(http.MethodPatch, "/api/admin/users/9", admin, gin.H{})
	wantStatus(t, w, http.StatusBadRequest)
	if got := decodeBody(t, w)["error"]; got != "No valid updates provided" {
		t.Errorf("error = %v", got)
	}

	w = f.srv.do(http.MethodPatch, "/api/admin/users/9", admin, gin.H{"is_banned": true})
	wantStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["changes"]; got != float64(1) {
		t.Errorf("changes = %v, want 1", got)
	}
	req := f.users.flags[9]
	if req.IsBanned == nil || !*req.IsBanned || req.IsAdmin != nil {
		t.Errorf("flags = %+v, want only is_banned=true", req)
	}
}

func TestAdminApproveSkill(t *testing.T) {
	f := newAdminFixture(t)
	admin := f.srv.token(1, true)

	wantStatus(t, f.srv.do(http.MethodPatch, "/api/admin/skills/4", admin, gin.H{}), http.StatusBadRequest)

	w := f.srv.do(http.MethodPatch, "/api/admin/skills/4", admin, gin.H{"is_approved": false})
	wantStatus(t, w, http.StatusOK)
	if approved, ok := f.skills.approved[4]; !ok || approved {
		t.Errorf("approved[4] = %v, %v; want false, true", approved, ok)
	}
}

func TestAdminDeduplicate(t *testing.T) {
	f := newAdminFixture(t)
	w := f.srv.do(http.MethodPost, "/api/admin/skills/deduplicate", f.srv.token(1, true), nil)
	wantStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["merged"]; got != float64(1) {
		t.Errorf("merged = %v, want 1", got)
	}
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture(t)
	w := f.srv.do(http.MethodGet, "/api/admin/stats", f.srv.token(1, true), nil)
	wantStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["totalUsers"] != float64(3) || body["pendingSkills"] != float64(1) {
		t.Errorf("stats = %v", body)
	}
}

func TestAdminReport_jsonAndCSV(t *testing.T) {
	f := newAdminFixture(t)
	admin := f.srv.token(1, true)

	w := f.srv.do(http.MethodGet, "/api/admin/reports/feedback", admin, nil)
	wantStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "rater_id") {
		t.Errorf("JSON report leaked an id column: %s", w.Body.String())
	}

	w = f.srv.do(http.MethodGet, "/api/admin/reports/feedback?format=csv&user_id=12", admin, nil)
	wantStatus(t, w, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "feedback_user_12_report.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "username,rating" {
		t.Errorf("csv = %q", w.Body.String())
	}

	wantStatus(t, f.srv.do(http.MethodGet, "/api/admin/reports/bogus", admin, nil), http.StatusBadRequest)
	wantStatus(t, f.srv.do(http.MethodGet, "/api/admin/reports/users?user_id=x", admin, nil), http.StatusBadRequest)
}

func TestAdminPostMessage(t *testing.T) {
	f := newAdminFixture(t)
	admin := f.srv.token(1, true)

	wantStatus(t, f.srv.do(http.MethodPost, "/api/admin/messages", admin, gin.H{"title": "hi"}), http.StatusBadRequest)

	w := f.srv.do(http.MethodPost, "/api/admin/messages", admin, gin.H{"title": "Maintenance", "message": "Down at noon"})
	wantStatus(t, w, http.StatusCreated)
	if len(f.dashboard.posted) != 1 || f.dashboard.posted[0].Title != "Maintenance" {
		t.Errorf("posted = %+v", f.dashboard.posted)
	}
}

func TestAdminLedger(t *testing.T) {
	f := newAdminFixture(t)
	admin := f.srv.token(1, true)
	ctx := context.Background()
	if _, err := f.ledger.Append(ctx, ledger.SwapSubject(1), "swap.created", ledger.UserActor(2), nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	w := f.srv.do(http.MethodGet, "/api/admin/ledger?limit=1", admin, nil)
	wantStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	recent, _ := body["recent"].([]any)
	if len(recent) != 1 {
		t.Errorf("recent = %v, want 1 entry", body["recent"])
	}
	if root, _ := body["root"].(string); root == "" {
		t.Error("root is empty")
	}

	w = f.srv.do(http.MethodGet, "/api/admin/ledger/verify", admin, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["valid"]; got != true {
		t.Errorf("valid = %v, want true", got)
	}

	wantStatus(t, f.srv.do(http.MethodGet, "/api/admin/ledger?limit=0", admin, nil), http.StatusBadRequest)
}
