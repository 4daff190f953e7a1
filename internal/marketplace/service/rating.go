package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/repository"
	"go.uber.org/zap"
)

// ratingRepo is satisfied by *repository.RatingRepository.
type ratingRepo interface {
	Create(ctx context.Context, r *model.Rating) error
	ListReceived(ctx context.Context, userID int64) ([]*model.RatingView, error)
	Totals(ctx context.Context, userID int64) (sum, count int64, err error)
}

// swapLookup is satisfied by *repository.SwapRepository.
type swapLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Swap, error)
}

// RatingService records post-swap feedback and computes user averages.
type RatingService struct {
	repo   ratingRepo
	swaps  swapLookup
	ledger ledger.Ledger
	events EventDispatcher
	logger *zap.Logger
}

// NewRatingService creates a RatingService.
func NewRatingService(repo ratingRepo, swaps swapLookup, logger *zap.Logger) *RatingService {
	return &RatingService{repo: repo, swaps: swaps, logger: logger}
}

// SetLedger enables audit entries for new ratings.
func (s *RatingService) SetLedger(l ledger.Ledger) { s.ledger = l }

// SetEventDispatcher enables rating.received notifications.
func (s *RatingService) SetEventDispatcher(d EventDispatcher) { s.events = d }

// Submit stores raterID's rating of the other participant of a completed
// swap. Each participant may rate a swap once.
func (s *RatingService) Submit(ctx context.Context, raterID int64, req *model.SubmitRatingRequest) (*model.Rating, error) {
	if req.Score < model.MinScore || req.Score > model.MaxScore {
		return nil, &model.ErrValidation{Msg: fmt.Sprintf("rating must be between %d and %d", model.MinScore, model.MaxScore)}
	}

	sw, err := s.swaps.GetByID(ctx, req.SwapID)
	if err != nil {
		return nil, err
	}
	if sw.RoleOf(raterID) == model.RoleNone {
		return nil, ErrForbidden
	}
	if !sw.IsCompleted() {
		return nil, ErrNotEligible
	}
	if req.RatedUserID != sw.Counterparty(raterID) {
		return nil, &model.ErrValidation{Msg: "rated_user_id must be the other participant of the swap"}
	}

	r := &model.Rating{
		SwapID:      req.SwapID,
		RaterID:     raterID,
		RatedUserID: req.RatedUserID,
		Score:       req.Score,
		Feedback:    req.Feedback,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	if s.ledger != nil {
		if _, err := s.ledger.Append(ctx, ledger.SwapSubject(r.SwapID), ledger.ActionRatingCreated,
			ledger.UserActor(raterID), r); err != nil {
			s.logger.Error("ledger append failed (non-fatal)", zap.Int64("swap_id", r.SwapID), zap.Error(err))
		}
	}
	if s.events != nil {
		s.events.Dispatch(ctx, EventRatingReceived, []int64{r.RatedUserID}, map[string]any{
			"swap_id": r.SwapID,
			"rating":  r.Score,
		})
	}
	return r, nil
}

// AverageFor returns the user's mean score rounded to one decimal, or nil
// when the user has not been rated.
func (s *RatingService) AverageFor(ctx context.Context, userID int64) (*float64, error) {
	sum, count, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	avg := model.RoundAverage(float64(sum) / float64(count))
	return &avg, nil
}

// ListFor returns ratings received by userID, newest first.
func (s *RatingService) ListFor(ctx context.Context, userID int64) ([]*model.RatingView, error) {
	return s.repo.ListReceived(ctx, userID)
}
