package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/repository"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/service"
	"go.uber.org/zap"
)

type stubSkillRepo struct {
	mu       sync.RWMutex
	nextID   int64
	skills   map[int64]*model.Skill
	offers   []*model.SkillOffer
	wants    []*model.SkillWant
	mergeErr error
}

func newStubSkillRepo() *stubSkillRepo {
	return &stubSkillRepo{skills: make(map[int64]*model.Skill)}
}

func (r *stubSkillRepo) put(id int64, name string, approved bool) {
	r.skills[id] = &model.Skill{ID: id, Name: name, IsApproved: approved}
	if id > r.nextID {
		r.nextID = id
	}
}

func (r *stubSkillRepo) Create(_ context.Context, s *model.Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.skills[s.ID] = &cp
	return nil
}

func (r *stubSkillRepo) GetByID(_ context.Context, id int64) (*model.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSkillRepo) ListByApproval(_ context.Context, approved bool) ([]*model.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Skill
	for _, s := range r.skills {
		if s.IsApproved == approved {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubSkillRepo) SetApproved(_ context.Context, id int64, approved bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.skills[id]
	if !ok {
		return 0, nil
	}
	s.IsApproved = approved
	return 1, nil
}

func (r *stubSkillRepo) AddOffer(_ context.Context, o *model.SkillOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skills[o.SkillID]; !ok {
		return repository.ErrNotFound
	}
	o.ID = int64(len(r.offers) + 1)
	cp := *o
	r.offers = append(r.offers, &cp)
	return nil
}

func (r *stubSkillRepo) AddWant(_ context.Context, w *model.SkillWant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skills[w.SkillID]; !ok {
		return repository.ErrNotFound
	}
	w.ID = int64(len(r.wants) + 1)
	cp := *w
	r.wants = append(r.wants, &cp)
	return nil
}

func (r *stubSkillRepo) RemoveOffer(_ context.Context, userID, offerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.offers {
		if o.ID == offerID && o.UserID == userID {
			r.offers = append(r.offers[:i], r.offers[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *stubSkillRepo) RemoveWant(_ context.Context, userID, wantID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.wants {
		if w.ID == wantID && w.UserID == userID {
			r.wants = append(r.wants[:i], r.wants[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *stubSkillRepo) DuplicateGroups(_ context.Context) ([]model.DuplicateGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName := make(map[string][]int64)
	for id, s := range r.skills {
		byName[s.Name] = append(byName[s.Name], id)
	}
	var out []model.DuplicateGroup
	for name, ids := range byName {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, model.DuplicateGroup{Name: name, CanonicalID: ids[0], DuplicateIDs: ids[1:]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalID < out[j].CanonicalID })
	return out, nil
}

func (r *stubSkillRepo) MergeGroup(_ context.Context, g model.DuplicateGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mergeErr != nil {
		return r.mergeErr
	}
	dup := make(map[int64]bool)
	for _, id := range g.DuplicateIDs {
		dup[id] = true
		if r.skills[id].IsApproved {
			r.skills[g.CanonicalID].IsApproved = true
		}
	}
	for _, o := range r.offers {
		if dup[o.SkillID] {
			o.SkillID = g.CanonicalID
		}
	}
	for _, w := range r.wants {
		if dup[w.SkillID] {
			w.SkillID = g.CanonicalID
		}
	}
	for id := range dup {
		delete(r.skills, id)
	}
	return nil
}

func TestPropose_startsUnapproved(t *testing.T) {
	svc := service.NewSkillService(newStubSkillRepo(), zap.NewNop())
	sk, err := svc.Propose(context.Background(), &model.ProposeSkillRequest{Name: "  Go  ", Category: "Programming"})
	if err != nil {
		t.Fatal(err)
	}
	if sk.IsApproved {
		t.Error("new skill must start unapproved")
	}
	if sk.Name != "Go" {
		t.Errorf("name not trimmed: %q", sk.Name)
	}

	if _, err := svc.Propose(context.Background(), &model.ProposeSkillRequest{Name: "   "}); err == nil {
		t.Error("blank name accepted")
	}
}

func TestApprove_idempotentAndListed(t *testing.T) {
	ctx := context.Background()
	repo := newStubSkillRepo()
	repo.put(1, "Go", false)
	svc := service.NewSkillService(repo, zap.NewNop())

	for i := 0; i < 2; i++ {
		if n, err := svc.Approve(ctx, 99, 1, true); err != nil || n != 1 {
			t.Fatalf("approve #%d: changes=%d err=%v", i+1, n, err)
		}
	}
	approved, _ := svc.ListApproved(ctx)
	pending, _ := svc.ListPending(ctx)
	if len(approved) != 1 || len(pending) != 0 {
		t.Errorf("approved=%d pending=%d", len(approved), len(pending))
	}
}

func TestDeduplicate_mergesIntoLowestID(t *testing.T) {
	ctx := context.Background()
	repo := newStubSkillRepo()
	repo.put(1, "Go", false)
	repo.put(5, "Go", true)
	repo.put(7, "Rust", true)
	svc := service.NewSkillService(repo, zap.NewNop())
	l := ledger.NewMemory()
	svc.SetLedger(l)

	if _, err := svc.Offer(ctx, alice, &model.OfferSkillRequest{SkillID: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Want(ctx, bob, &model.WantSkillRequest{SkillID: 5}); err != nil {
		t.Fatal(err)
	}

	merged, err := svc.Deduplicate(ctx)
	if err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	if len(merged) != 1 || merged[0].CanonicalID != 1 || len(merged[0].DuplicateIDs) != 1 || merged[0].DuplicateIDs[0] != 5 {
		t.Fatalf("merged: %+v", merged)
	}
	if _, err := repo.GetByID(ctx, 5); !errors.Is(err, repository.ErrNotFound) {
		t.Error("duplicate skill 5 still exists")
	}
	if repo.offers[0].SkillID != 1 || repo.wants[0].SkillID != 1 {
		t.Errorf("references not repointed: offer=%d want=%d", repo.offers[0].SkillID, repo.wants[0].SkillID)
	}
	canonical, _ := repo.GetByID(ctx, 1)
	if !canonical.IsApproved {
		t.Error("approval of merged duplicate was lost")
	}
	if n, _ := l.Len(ctx); n != 2 {
		t.Errorf("expected one merge entry in ledger, got %d entries", n)
	}

	again, err := svc.Deduplicate(ctx)
	if err != nil || len(again) != 0 {
		t.Errorf("second run: merged=%v err=%v", again, err)
	}
}

func TestDeduplicate_stopsOnMergeError(t *testing.T) {
	repo := newStubSkillRepo()
	repo.put(1, "Go", false)
	repo.put(2, "Go", false)
	repo.mergeErr = errors.New("boom")
	svc := service.NewSkillService(repo, zap.NewNop())

	merged, err := svc.Deduplicate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(merged) != 0 {
		t.Errorf("merged: %v", merged)
	}
}

func TestRemoveOffer_scopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := newStubSkillRepo()
	repo.put(1, "Go", true)
	svc := service.NewSkillService(repo, zap.NewNop())

	o, err := svc.Offer(ctx, alice, &model.OfferSkillRequest{SkillID: 1, ProficiencyLevel: "expert"})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.RemoveOffer(ctx, bob, o.ID); n != 0 {
		t.Errorf("other user removed %d offers", n)
	}
	if n, _ := svc.RemoveOffer(ctx, alice, o.ID); n != 1 {
		t.Errorf("owner removed %d offers", n)
	}
}

func TestOffer_unknownSkill(t *testing.T) {
	svc := service.NewSkillService(newStubSkillRepo(), zap.NewNop())
	_, err := svc.Offer(context.Background(), alice, &model.OfferSkillRequest{SkillID: 404})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
