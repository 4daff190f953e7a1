package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/authz"
	"github.com/jmerrifield20/SkillSwap/internal/identity"
)

func TestAllow(t *testing.T) {
	admin := authz.Actor{UserID: 1, IsAdmin: true}
	user := authz.Actor{UserID: 2}

	for _, capability := range []authz.Capability{
		authz.ManageUsers, authz.ApproveSkills, authz.DeduplicateSkill, authz.ViewStats,
		authz.DownloadReports, authz.BroadcastMessage, authz.SendMail, authz.AuditLedger,
	} {
		if !authz.Allow(admin, capability) {
			t.Errorf("admin denied %s", capability)
		}
		if authz.Allow(user, capability) {
			t.Errorf("non-admin allowed %s", capability)
		}
	}
	if authz.Allow(authz.Actor{IsAdmin: true}, authz.ViewStats) {
		t.Error("anonymous actor with admin flag must be denied")
	}
	if authz.Allow(admin, authz.Capability("unknown")) {
		t.Error("unknown capability must be denied")
	}
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := identity.NewUserTokenIssuer("secret", "test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/stats", identity.RequireUserToken(tokens), authz.Require(authz.ViewStats), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	adminTok, _ := tokens.Issue(1, "root", true)
	userTok, _ := tokens.Issue(2, "alice", false)

	for _, tc := range []struct {
		tok  string
		want int
	}{
		{adminTok, http.StatusOK},
		{userTok, http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		req.Header.Set("Authorization", "Bearer "+tc.tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("got %d, want %d", w.Code, tc.want)
		}
	}
}
