package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/repository"
)

// ── Swap repo ─────────────────────────────────────────────────────────────

type stubSwapRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*model.Swap
}

func newStubSwapRepo() *stubSwapRepo {
	return &stubSwapRepo{byID: make(map[int64]*model.Swap)}
}

func (r *stubSwapRepo) Create(_ context.Context, s *model.Swap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *stubSwapRepo) GetByID(_ context.Context, id int64) (*model.Swap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSwapRepo) ListForUser(_ context.Context, userID int64) ([]*model.SwapView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.SwapView
	for _, s := range r.byID {
		if s.RequesterID == userID || s.RecipientID == userID {
			out = append(out, &model.SwapView{Swap: *s})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubSwapRepo) UpdateStatus(_ context.Context, id int64, to model.SwapStatus, from []model.SwapStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.TrackingStatus == model.TrackingCompleted {
		return 0, nil
	}
	for _, f := range from {
		if s.Status == f {
			s.Status = to
			if to == model.SwapStatusAccepted {
				s.TrackingStatus = model.TrackingInProgress
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (r *stubSwapRepo) DeletePending(_ context.Context, id, requesterID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.Status != model.SwapStatusPending || s.RequesterID != requesterID {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

func (r *stubSwapRepo) Mutate(_ context.Context, id int64, fn func(s *model.Swap) error) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	cp := *s
	if err := fn(&cp); err != nil {
		return 0, err
	}
	r.byID[id] = &cp
	return 1, nil
}

// ── Offer checker ─────────────────────────────────────────────────────────

type stubOffers map[[2]int64]bool

func (o stubOffers) HasOffer(_ context.Context, userID, skillID int64) (bool, error) {
	return o[[2]int64{userID, skillID}], nil
}

// ── Rating repo ───────────────────────────────────────────────────────────

type stubRatingRepo struct {
	mu      sync.RWMutex
	nextID  int64
	ratings []*model.Rating
}

func (r *stubRatingRepo) Create(_ context.Context, rt *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.SwapID == rt.SwapID && existing.RaterID == rt.RaterID {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	rt.ID = r.nextID
	rt.CreatedAt = time.Now()
	cp := *rt
	r.ratings = append(r.ratings, &cp)
	return nil
}

func (r *stubRatingRepo) ListReceived(_ context.Context, userID int64) ([]*model.RatingView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.RatingView
	for i := len(r.ratings) - 1; i >= 0; i-- {
		if r.ratings[i].RatedUserID == userID {
			out = append(out, &model.RatingView{Rating: *r.ratings[i]})
		}
	}
	return out, nil
}

func (r *stubRatingRepo) Totals(_ context.Context, userID int64) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum, count int64
	for _, rt := range r.ratings {
		if rt.RatedUserID == userID {
			sum += int64(rt.Score)
			count++
		}
	}
	return sum, count, nil
}

// ── Event recorder ────────────────────────────────────────────────────────

type dispatched struct {
	event string
	users []int64
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []dispatched
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event string, users []int64, _ map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, dispatched{event: event, users: users})
}

func (d *recordingDispatcher) count(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.event == event {
			n++
		}
	}
	return n
}
