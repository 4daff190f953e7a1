package service

import (
	"context"
	"sync"

	"github.com/jmerrifield20/SkillSwap/internal/email"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"go.uber.org/zap"
)

// adminRepo is satisfied by *repository.AdminRepository.
type adminRepo interface {
	Stats(ctx context.Context) (*model.Stats, error)
	Report(ctx context.Context, t model.ReportType, userID *int64) (*model.Report, error)
	CreateMessage(ctx context.Context, m *model.AdminMessage) error
}

// RecipientLister returns the email addresses of every non-banned user.
// *users.Repository satisfies this interface.
type RecipientLister interface {
	ListBroadcastEmails(ctx context.Context) ([]string, error)
}

// AdminService backs the admin dashboard: statistics, reports and
// announcements.
type AdminService struct {
	repo       adminRepo
	recipients RecipientLister
	mailer     email.Sender
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewAdminService creates an AdminService.
func NewAdminService(repo adminRepo, recipients RecipientLister, mailer email.Sender, logger *zap.Logger) *AdminService {
	return &AdminService{repo: repo, recipients: recipients, mailer: mailer, logger: logger}
}

// Stats returns the dashboard counters for users, skills and swaps.
func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.repo.Stats(ctx)
}

// Report runs report t, optionally scoped to userID, with every id column
// removed.
func (s *AdminService) Report(ctx context.Context, t model.ReportType, userID *int64) (*model.Report, error) {
	if !t.Valid() {
		return nil, &model.ErrValidation{Msg: "Invalid report type"}
	}
	rep, err := s.repo.Report(ctx, t, userID)
	if err != nil {
		return nil, err
	}
	return rep.WithoutIDColumns(), nil
}

// PostMessage stores an announcement and emails it to every non-banned
// user in the background. Delivery failures are logged and never reach the
// caller.
func (s *AdminService) PostMessage(ctx context.Context, adminID int64, req *model.PostMessageRequest) (*model.AdminMessage, error) {
	m := &model.AdminMessage{AdminID: adminID, Title: req.Title, Message: req.Message}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcast(bg, m)
	}()
	return m, nil
}

// Wait blocks until background broadcasts have finished.
func (s *AdminService) Wait() {
	s.wg.Wait()
}

func (s *AdminService) broadcast(ctx context.Context, m *model.AdminMessage) {
	if s.mailer == nil || s.recipients == nil {
		return
	}
	addrs, err := s.recipients.ListBroadcastEmails(ctx)
	if err != nil {
		s.logger.Error("broadcast: list recipients", zap.Int64("message_id", m.ID), zap.Error(err))
		return
	}

	var failed int
	for _, to := range addrs {
		msg, err := email.Announcement(to, m.Title, m.Message)
		if err == nil {
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			failed++
			s.logger.Warn("broadcast: send failed", zap.String("to", to), zap.Error(err))
		}
	}
	s.logger.Info("admin message broadcast",
		zap.Int64("message_id", m.ID),
		zap.Int("recipients", len(addrs)),
		zap.Int("failed", failed),
	)
}
