package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/handler"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/users"
	"go.uber.org/zap"
)

type stubAccounts struct {
	mu     sync.RWMutex
	byName map[string]*users.User
	pass   map[string]string
	nextID int64
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{byName: make(map[string]*users.User), pass: make(map[string]string)}
}

func (s *stubAccounts) Register(_ context.Context, req users.RegisterRequest) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(req.Username) < 3 {
		return nil, &model.ErrValidation{Msg: "username must be at least 3 characters"}
	}
	if _, ok := s.byName[req.Username]; ok {
		return nil, users.ErrDuplicateUsername
	}
	s.nextID++
	u := &users.User{ID: s.nextID, Username: req.Username, Email: req.Email, Name: req.Name}
	s.byName[u.Username] = u
	s.pass[u.Username] = req.Password
	return u, nil
}

func (s *stubAccounts) Login(_ context.Context, username, password string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return nil, users.ErrInvalidCredentials
	}
	if u.IsBanned {
		return nil, users.ErrBanned
	}
	if s.pass[username] != password {
		return nil, users.ErrInvalidCredentials
	}
	return u, nil
}

func newAuthServer(t *testing.T) (*testServer, *stubAccounts) {
	t.Helper()
	srv := newTestServer(t)
	accounts := newStubAccounts()
	h := handler.NewAuthHandler(accounts, srv.tokens, zap.NewNop())
	h.Register(srv.router.Group("/api"))
	return srv, accounts
}

func TestSignUp_created(t *testing.T) {
	srv, _ := newAuthServer(t)
	w := srv.do(http.MethodPost, "/api/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	wantStatus(t, w, http.StatusCreated)
	if id := decodeBody(t, w)["id"]; id != float64(1) {
		t.Errorf("id = %v, want 1", id)
	}
}

func TestSignUp_validationAndDuplicate(t *testing.T) {
	srv, _ := newAuthServer(t)

	w := srv.do(http.MethodPost, "/api/register", "", gin.H{"username": "al", "email": "a@b.c", "password": "secret1"})
	wantStatus(t, w, http.StatusBadRequest)

	body := gin.H{"username": "alice", "email": "alice@example.com", "password": "secret1"}
	wantStatus(t, srv.do(http.MethodPost, "/api/register", "", body), http.StatusCreated)
	w = srv.do(http.MethodPost, "/api/register", "", body)
	wantStatus(t, w, http.StatusConflict)
}

func TestLogin_returnsVerifiableToken(t *testing.T) {
	srv, _ := newAuthServer(t)
	srv.do(http.MethodPost, "/api/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret1", "name": "Alice",
	})

	w := srv.do(http.MethodPost, "/api/login", "", gin.H{"username": "alice", "password": "secret1"})
	wantStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	tok, _ := body["token"].(string)
	claims, err := srv.tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 1 || claims.IsAdmin {
		t.Errorf("claims = %+v, want user 1 non-admin", claims)
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "alice" || user["name"] != "Alice" {
		t.Errorf("user summary = %v", user)
	}
}

func TestLogin_failures(t *testing.T) {
	srv, accounts := newAuthServer(t)
	srv.do(http.MethodPost, "/api/register", "", gin.H{"username": "alice", "email": "a@example.com", "password": "secret1"})
	srv.do(http.MethodPost, "/api/register", "", gin.H{"username": "mallory", "email": "m@example.com", "password": "secret1"})
	accounts.byName["mallory"].IsBanned = true

	tests := []struct {
		name     string
		username string
		password string
		want     int
		msg      string
	}{
		{"wrong password", "alice", "nope123", http.StatusBadRequest, "Invalid credentials"},
		{"unknown user", "bob", "secret1", http.StatusBadRequest, "Invalid credentials"},
		{"banned", "mallory", "secret1", http.StatusForbidden, "This user is banned by admin."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/api/login", "", gin.H{"username": tc.username, "password": tc.password})
			wantStatus(t, w, tc.want)
			if got := decodeBody(t, w)["error"]; got != tc.msg {
				t.Errorf("error = %v, want %q", got, tc.msg)
			}
		})
	}
}

func TestLogin_missingFields(t *testing.T) {
	srv, _ := newAuthServer(t)
	w := srv.do(http.MethodPost, "/api/login", "", gin.H{"username": "alice"})
	wantStatus(t, w, http.StatusBadRequest)
}
