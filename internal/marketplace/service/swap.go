package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

// swapRepo is satisfied by *repository.SwapRepository.
type swapRepo interface {
	Create(ctx context.Context, s *model.Swap) error
	GetByID(ctx context.Context, id int64) (*model.Swap, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.SwapView, error)
	UpdateStatus(ctx context.Context, id int64, to model.SwapStatus, from []model.SwapStatus) (int64, error)
	DeletePending(ctx context.Context, id, requesterID int64) (int64, error)
	Mutate(ctx context.Context, id int64, fn func(s *model.Swap) error) (int64, error)
}

// OfferChecker reports whether a user currently offers a skill.
// *repository.SkillRepository satisfies this interface.
type OfferChecker interface {
	HasOffer(ctx context.Context, userID, skillID int64) (bool, error)
}

// EventDispatcher fans a marketplace event out to the given users.
// *webhooks.Service satisfies this interface.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, userIDs []int64, payload map[string]any)
}

// Event names passed to the EventDispatcher.
const (
	EventSwapRequested     = "swap.requested"
	EventSwapStatusChanged = "swap.status_changed"
	EventSwapCompleted     = "swap.completed"
	EventRatingReceived    = "rating.received"
)

// SwapService owns the swap lifecycle: creation, status transitions,
// deletion and two-party progress tracking.
type SwapService struct {
	repo   swapRepo
	offers OfferChecker
	ledger ledger.Ledger   // nil = no audit entries
	events EventDispatcher // nil = no outbound notifications
	now    func() time.Time
	logger *zap.Logger
}

// NewSwapService creates a SwapService.
func NewSwapService(repo swapRepo, offers OfferChecker, logger *zap.Logger) *SwapService {
	return &SwapService{
		repo:   repo,
		offers: offers,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// SetLedger enables audit entries for lifecycle events.
func (s *SwapService) SetLedger(l ledger.Ledger) {
	s.ledger = l
}

// SetEventDispatcher enables outbound notifications.
func (s *SwapService) SetEventDispatcher(d EventDispatcher) {
	s.events = d
}

// SetClock replaces the time source used to stamp completion.
func (s *SwapService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SwapService) appendLedger(ctx context.Context, swapID int64, action, actor string, payload any) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.Append(ctx, ledger.SwapSubject(swapID), action, actor, payload); err != nil {
		s.logger.Error("ledger append failed (non-fatal)",
			zap.String("action", action),
			zap.Int64("swap_id", swapID),
			zap.Error(err),
		)
	}
}

func (s *SwapService) dispatch(ctx context.Context, event string, users []int64, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(ctx, event, users, payload)
}

// Create opens a pending swap from requesterID to the recipient. The
// requester must currently offer the skill they put up.
func (s *SwapService) Create(ctx context.Context, requesterID int64, req *model.CreateSwapRequest) (*model.Swap, error) {
	if req.RecipientID == requesterID {
		return nil, &model.ErrValidation{Msg: "cannot request a swap with yourself"}
	}
	ok, err := s.offers.HasOffer(ctx, requesterID, req.RequesterSkillID)
	if err != nil {
		return nil, fmt.Errorf("check requester offer: %w", err)
	}
	if !ok {
		return nil, &model.ErrValidation{Msg: "requester_skill_id is not one of your offered skills"}
	}

	sw := &model.Swap{
		RequesterID:      requesterID,
		RecipientID:      req.RecipientID,
		RequesterSkillID: req.RequesterSkillID,
		RecipientSkillID: req.RecipientSkillID,
		Message:          req.Message,
		Status:           model.SwapStatusPending,
		TrackingStatus:   model.TrackingPending,
	}
	if err := s.repo.Create(ctx, sw); err != nil {
		return nil, err
	}

	s.logger.Info("swap requested",
		zap.Int64("swap_id", sw.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("recipient_id", req.RecipientID),
	)
	s.appendLedger(ctx, sw.ID, ledger.ActionSwapRequested, ledger.UserActor(requesterID), sw)
	s.dispatch(ctx, EventSwapRequested, []int64{sw.RecipientID}, map[string]any{
		"swap_id":      sw.ID,
		"requester_id": sw.RequesterID,
	})
	return sw, nil
}

// List returns the actor's swaps, newest first.
func (s *SwapService) List(ctx context.Context, actorID int64) ([]*model.SwapView, error) {
	return s.repo.ListForUser(ctx, actorID)
}

// Get returns a swap the actor participates in.
func (s *SwapService) Get(ctx context.Context, swapID, actorID int64) (*model.Swap, error) {
	sw, err := s.repo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if sw.RoleOf(actorID) == model.RoleNone {
		return nil, ErrForbidden
	}
	return sw, nil
}

// TransitionStatus moves the swap to `to` on behalf of actorID. Only the
// recipient may accept or reject, and only while pending. Either participant
// may cancel a pending or accepted swap. A precondition that no longer holds
// yields zero changes rather than an error.
func (s *SwapService) TransitionStatus(ctx context.Context, swapID, actorID int64, to model.SwapStatus) (int64, error) {
	from := model.TransitionSources(to)
	if from == nil {
		return 0, &model.ErrValidation{Msg: "status must be one of accepted, rejected, cancelled"}
	}

	sw, err := s.repo.GetByID(ctx, swapID)
	if err != nil {
		return 0, err
	}
	role := sw.RoleOf(actorID)
	if role == model.RoleNone {
		return 0, ErrForbidden
	}
	if !model.MayRequestTransition(role, to) {
		return 0, ErrForbidden
	}

	changes, err := s.repo.UpdateStatus(ctx, swapID, to, from)
	if err != nil {
		return 0, err
	}
	if changes > 0 {
		s.logger.Info("swap status changed",
			zap.Int64("swap_id", swapID),
			zap.String("from", string(sw.Status)),
			zap.String("to", string(to)),
			zap.Int64("actor_id", actorID),
		)
		s.appendLedger(ctx, swapID, ledger.ActionSwapStatus, ledger.UserActor(actorID),
			map[string]string{"from": string(sw.Status), "to": string(to)})
		s.dispatch(ctx, EventSwapStatusChanged, []int64{sw.Counterparty(actorID)}, map[string]any{
			"swap_id": swapID,
			"status":  string(to),
		})
	}
	return changes, nil
}

// Delete removes a pending swap. Only the requester may delete it; any
// other case reports zero changes.
func (s *SwapService) Delete(ctx context.Context, swapID, actorID int64) (int64, error) {
	changes, err := s.repo.DeletePending(ctx, swapID, actorID)
	if err != nil {
		return 0, err
	}
	if changes > 0 {
		s.appendLedger(ctx, swapID, ledger.ActionSwapDeleted, ledger.UserActor(actorID), nil)
	}
	return changes, nil
}

// UpdateProgress applies a participant's progress update. Notes and the
// completion flag go to the actor's own side. When both sides have marked
// the swap completed, tracking_status becomes completed and completed_at is
// stamped, once.
func (s *SwapService) UpdateProgress(ctx context.Context, swapID, actorID int64, u model.ProgressUpdate) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}

	var fired bool
	var counterparty int64
	changes, err := s.repo.Mutate(ctx, swapID, func(sw *model.Swap) error {
		role := sw.RoleOf(actorID)
		if role == model.RoleNone {
			return ErrForbidden
		}
		if sw.Status != model.SwapStatusAccepted {
			return fmt.Errorf("%w: progress can only be tracked on an accepted swap", ErrConflict)
		}
		if sw.IsCompleted() && (u.Completed != nil || u.TrackingStatus != nil) {
			return fmt.Errorf("%w: swap is already completed", ErrConflict)
		}
		counterparty = sw.Counterparty(actorID)
		fired = sw.ApplyProgress(role, u, s.now())
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.appendLedger(ctx, swapID, ledger.ActionSwapProgress, ledger.UserActor(actorID), u)
	if fired {
		s.logger.Info("swap completed", zap.Int64("swap_id", swapID))
		s.appendLedger(ctx, swapID, ledger.ActionSwapCompleted, ledger.SystemActor, nil)
		s.dispatch(ctx, EventSwapCompleted, []int64{actorID, counterparty}, map[string]any{"swap_id": swapID})
	}
	return changes, nil
}
