package handler_test

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/handler"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/repository"
	"go.uber.org/zap"
)

type stubSkills struct {
	mu     sync.Mutex
	skills []*model.Skill
	offers map[int64]*model.SkillOffer
	nextID int64
}

func newStubSkills() *stubSkills {
	return &stubSkills{offers: make(map[int64]*model.SkillOffer)}
}

func (s *stubSkills) Propose(_ context.Context, req *model.ProposeSkillRequest) (*model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sk := &model.Skill{ID: s.nextID, Name: req.Name}
	s.skills = append(s.skills, sk)
	return sk, nil
}

func (s *stubSkills) ListApproved(context.Context) ([]*model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Skill
	for _, sk := range s.skills {
		if sk.IsApproved {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (s *stubSkills) Offer(_ context.Context, userID int64, req *model.OfferSkillRequest) (*model.SkillOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.SkillID > s.nextID {
		return nil, repository.ErrNotFound
	}
	s.nextID++
	o := &model.SkillOffer{ID: s.nextID, UserID: userID, SkillID: req.SkillID}
	s.offers[o.ID] = o
	return o, nil
}

func (s *stubSkills) Want(_ context.Context, userID int64, req *model.WantSkillRequest) (*model.SkillWant, error) {
	return &model.SkillWant{ID: 99, UserID: userID, SkillID: req.SkillID}, nil
}

func (s *stubSkills) RemoveOffer(_ context.Context, userID, offerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[offerID]
	if !ok || o.UserID != userID {
		return 0, nil
	}
	delete(s.offers, offerID)
	return 1, nil
}

func (s *stubSkills) RemoveWant(context.Context, int64, int64) (int64, error) {
	return 0, nil
}

func TestSkills_listIsEmptyArrayUntilApproved(t *testing.T) {
	skills := newStubSkills()
	srv := newTestServer(t, handler.NewSkillHandler(skills, zap.NewNop()))

	wantStatus(t, srv.do(http.MethodPost, "/api/skills", "", gin.H{"name": "Pottery"}), http.StatusUnauthorized)
	wantStatus(t, srv.do(http.MethodPost, "/api/skills", srv.token(1, false), gin.H{"name": "Pottery"}), http.StatusCreated)

	w := srv.do(http.MethodGet, "/api/skills", "", nil)
	wantStatus(t, w, http.StatusOK)
	if w.Body.String() != "[]" {
		t.Errorf("pending skill listed: %s", w.Body.String())
	}
}

func TestSkills_offerAndRemoveScopedToOwner(t *testing.T) {
	skills := newStubSkills()
	srv := newTestServer(t, handler.NewSkillHandler(skills, zap.NewNop()))
	alice, bob := srv.token(1, false), srv.token(2, false)

	srv.do(http.MethodPost, "/api/skills", alice, gin.H{"name": "Pottery"})
	w := srv.do(http.MethodPost, "/api/user/skills/offered", alice, gin.H{"skill_id": 1, "proficiency_level": "expert"})
	wantStatus(t, w, http.StatusCreated)
	offerID := int64(decodeBody(t, w)["id"].(float64))

	wantStatus(t, srv.do(http.MethodPost, "/api/user/skills/offered", alice, gin.H{"skill_id": 50}), http.StatusNotFound)

	path := "/api/user/skills/offered/" + itoa(offerID)
	if got := decodeBody(t, srv.do(http.MethodDelete, path, bob, nil))["deleted"]; got != float64(0) {
		t.Errorf("deleted by other user = %v, want 0", got)
	}
	if got := decodeBody(t, srv.do(http.MethodDelete, path, alice, nil))["deleted"]; got != float64(1) {
		t.Errorf("deleted by owner = %v, want 1", got)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
