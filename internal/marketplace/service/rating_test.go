package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/service"
	"go.uber.org/zap"
)

// completedSwap runs a swap through creation, acceptance and both
// completions, returning the services that share its state.
func completedSwap(t *testing.T) (*service.SwapService, *service.RatingService, *model.Swap) {
	t.Helper()
	ctx := context.Background()
	swaps, repo := newSwapService(t)
	sw := createSwap(t, swaps)
	acceptSwap(t, swaps, sw.ID)
	_, _ = swaps.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Completed: boolPtr(true)})
	_, _ = swaps.UpdateProgress(ctx, sw.ID, bob, model.ProgressUpdate{Completed: boolPtr(true)})
	return swaps, service.NewRatingService(&stubRatingRepo{}, repo, zap.NewNop()), sw
}

func TestSubmit_happyPath(t *testing.T) {
	_, ratings, sw := completedSwap(t)
	events := &recordingDispatcher{}
	ratings.SetEventDispatcher(events)

	r, err := ratings.Submit(context.Background(), alice, &model.SubmitRatingRequest{
		SwapID: sw.ID, RatedUserID: bob, Score: 5, Feedback: "great",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.RaterID != alice || r.RatedUserID != bob || r.ID == 0 {
		t.Errorf("rating: %+v", r)
	}
	if events.count(service.EventRatingReceived) != 1 {
		t.Error("rating.received not dispatched")
	}
}

func TestSubmit_rules(t *testing.T) {
	ctx := context.Background()

	t.Run("score out of range", func(t *testing.T) {
		_, ratings, sw := completedSwap(t)
		for _, score := range []int{0, 6} {
			_, err := ratings.Submit(ctx, alice, &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: bob, Score: score})
			var valErr *model.ErrValidation
			if !errors.As(err, &valErr) {
				t.Errorf("score %d: got %v, want validation error", score, err)
			}
		}
	})

	t.Run("swap not completed", func(t *testing.T) {
		swaps, repo := newSwapService(t)
		sw := createSwap(t, swaps)
		acceptSwap(t, swaps, sw.ID)
		ratings := service.NewRatingService(&stubRatingRepo{}, repo, zap.NewNop())

		_, err := ratings.Submit(ctx, alice, &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: bob, Score: 4})
		if !errors.Is(err, service.ErrNotEligible) {
			t.Errorf("got %v, want ErrNotEligible", err)
		}
	})

	t.Run("rater not a participant", func(t *testing.T) {
		_, ratings, sw := completedSwap(t)
		_, err := ratings.Submit(ctx, carol, &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: bob, Score: 4})
		if !errors.Is(err, service.ErrForbidden) {
			t.Errorf("got %v, want ErrForbidden", err)
		}
	})

	t.Run("rating yourself", func(t *testing.T) {
		_, ratings, sw := completedSwap(t)
		_, err := ratings.Submit(ctx, alice, &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: alice, Score: 4})
		var valErr *model.ErrValidation
		if !errors.As(err, &valErr) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	t.Run("second rating by same rater", func(t *testing.T) {
		_, ratings, sw := completedSwap(t)
		req := &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: bob, Score: 4}
		if _, err := ratings.Submit(ctx, alice, req); err != nil {
			t.Fatal(err)
		}
		if _, err := ratings.Submit(ctx, alice, req); !errors.Is(err, service.ErrAlreadyRated) {
			t.Errorf("got %v, want ErrAlreadyRated", err)
		}
		// The counterparty still gets their own rating.
		if _, err := ratings.Submit(ctx, bob, &model.SubmitRatingRequest{SwapID: sw.ID, RatedUserID: alice, Score: 3}); err != nil {
			t.Errorf("counterparty rating: %v", err)
		}
	})
}

func TestAverageFor(t *testing.T) {
	ctx := context.Background()
	repo := &stubRatingRepo{}
	ratings := service.NewRatingService(repo, newStubSwapRepo(), zap.NewNop())

	avg, err := ratings.AverageFor(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if avg != nil {
		t.Errorf("unrated user: got %v, want nil", *avg)
	}

	for i, score := range []int{5, 4, 4} {
		_ = repo.Create(ctx, &model.Rating{SwapID: int64(i + 1), RaterID: alice, RatedUserID: bob, Score: score})
	}
	avg, _ = ratings.AverageFor(ctx, bob)
	if avg == nil || *avg != 4.3 {
		t.Errorf("average: got %v, want 4.3", avg)
	}
}
