package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeRegistrar interface {
	Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc)
}

// testServer mounts h under /api behind a real token issuer.
type testServer struct {
	t      *testing.T
	router *gin.Engine
	tokens *identity.UserTokenIssuer
}

func newTestServer(t *testing.T, hs ...routeRegistrar) *testServer {
	t.Helper()
	tokens, err := identity.NewUserTokenIssuer("test-secret", "skillswap-test", time.Hour)
	if err != nil {
		t.Fatalf("NewUserTokenIssuer: %v", err)
	}
	r := gin.New()
	api := r.Group("/api")
	for _, h := range hs {
		h.Register(api, identity.RequireUserToken(tokens))
	}
	return &testServer{t: t, router: r, tokens: tokens}
}

func (s *testServer) token(userID int64, admin bool) string {
	s.t.Helper()
	tok, err := s.tokens.Issue(userID, "user", admin)
	if err != nil {
		s.t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, code, w.Body.String())
	}
}
