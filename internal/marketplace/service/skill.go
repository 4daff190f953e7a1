package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

// skillRepo is satisfied by *repository.SkillRepository.
type skillRepo interface {
	Create(ctx context.Context, s *model.Skill) error
	GetByID(ctx context.Context, id int64) (*model.Skill, error)
	ListByApproval(ctx context.Context, approved bool) ([]*model.Skill, error)
	SetApproved(ctx context.Context, id int64, approved bool) (int64, error)
	AddOffer(ctx context.Context, o *model.SkillOffer) error
	AddWant(ctx context.Context, w *model.SkillWant) error
	RemoveOffer(ctx context.Context, userID, offerID int64) (int64, error)
	RemoveWant(ctx context.Context, userID, wantID int64) (int64, error)
	DuplicateGroups(ctx context.Context) ([]model.DuplicateGroup, error)
	MergeGroup(ctx context.Context, g model.DuplicateGroup) error
}

// SkillService manages the skill catalogue and users' offers and wants.
type SkillService struct {
	repo   skillRepo
	ledger ledger.Ledger
	logger *zap.Logger
}

// NewSkillService creates a SkillService.
func NewSkillService(repo skillRepo, logger *zap.Logger) *SkillService {
	return &SkillService{repo: repo, logger: logger}
}

// SetLedger enables audit entries for approvals and merges.
func (s *SkillService) SetLedger(l ledger.Ledger) { s.ledger = l }

func (s *SkillService) appendLedger(ctx context.Context, skillID int64, action, actor string, payload any) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.Append(ctx, ledger.SkillSubject(skillID), action, actor, payload); err != nil {
		s.logger.Error("ledger append failed (non-fatal)",
			zap.String("action", action), zap.Int64("skill_id", skillID), zap.Error(err))
	}
}

// Propose adds an unapproved skill to the catalogue.
func (s *SkillService) Propose(ctx context.Context, req *model.ProposeSkillRequest) (*model.Skill, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &model.ErrValidation{Msg: "name is required"}
	}
	sk := &model.Skill{
		Name:        name,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// ListApproved returns the public catalogue.
func (s *SkillService) ListApproved(ctx context.Context) ([]*model.Skill, error) {
	return s.repo.ListByApproval(ctx, true)
}

// ListPending returns skills awaiting review.
func (s *SkillService) ListPending(ctx context.Context) ([]*model.Skill, error) {
	return s.repo.ListByApproval(ctx, false)
}

// Approve sets the approval flag. Repeating the same value is harmless.
func (s *SkillService) Approve(ctx context.Context, adminID, skillID int64, approved bool) (int64, error) {
	changes, err := s.repo.SetApproved(ctx, skillID, approved)
	if err != nil {
		return 0, err
	}
	if changes > 0 {
		s.appendLedger(ctx, skillID, ledger.ActionSkillApproval, ledger.UserActor(adminID),
			map[string]bool{"is_approved": approved})
	}
	return changes, nil
}

// Offer records that userID can teach the skill.
func (s *SkillService) Offer(ctx context.Context, userID int64, req *model.OfferSkillRequest) (*model.SkillOffer, error) {
	o := &model.SkillOffer{
		UserID:           userID,
		SkillID:          req.SkillID,
		Description:      req.Description,
		ProficiencyLevel: req.ProficiencyLevel,
	}
	if err := s.repo.AddOffer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Want records that userID wants to learn the skill.
func (s *SkillService) Want(ctx context.Context, userID int64, req *model.WantSkillRequest) (*model.SkillWant, error) {
	w := &model.SkillWant{UserID: userID, SkillID: req.SkillID, Description: req.Description}
	if err := s.repo.AddWant(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveOffer deletes one of userID's offers. Rows owned by other users are
// never touched; the count is zero in that case.
func (s *SkillService) RemoveOffer(ctx context.Context, userID, offerID int64) (int64, error) {
	return s.repo.RemoveOffer(ctx, userID, offerID)
}

// RemoveWant deletes one of userID's wants.
func (s *SkillService) RemoveWant(ctx context.Context, userID, wantID int64) (int64, error) {
	return s.repo.RemoveWant(ctx, userID, wantID)
}

// Deduplicate merges every group of same-named skills into the group's
// lowest id. Each group is merged in its own transaction; a failing group
// stops the run and the groups merged so far are returned with the error.
func (s *SkillService) Deduplicate(ctx context.Context) ([]model.DuplicateGroup, error) {
	groups, err := s.repo.DuplicateGroups(ctx)
	if err != nil {
		return nil, err
	}

	merged := make([]model.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if err := s.repo.MergeGroup(ctx, g); err != nil {
			return merged, fmt.Errorf("merge %q: %w", g.Name, err)
		}
		merged = append(merged, g)
		s.logger.Info("merged duplicate skills",
			zap.String("name", g.Name),
			zap.Int64("canonical_id", g.CanonicalID),
			zap.Int64s("removed_ids", g.DuplicateIDs),
		)
		s.appendLedger(ctx, g.CanonicalID, ledger.ActionSkillsMerged, ledger.SystemActor, g)
	}
	return merged, nil
}
