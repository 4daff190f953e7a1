// Package maintenance runs periodic housekeeping jobs on cron schedules:
// merging duplicate skills and re-verifying the audit ledger chain.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Config holds the job schedules in standard five-field cron syntax. An
// empty schedule disables that job.
type Config struct {
	DedupSchedule  string
	VerifySchedule string
	JobTimeout     time.Duration
}

// Deduplicator merges skills that share a name.
type Deduplicator interface {
	Deduplicate(ctx context.Context) ([]model.DuplicateGroup, error)
}

// ChainVerifier checks the integrity of a hash chain.
type ChainVerifier interface {
	Verify(ctx context.Context) error
}

// MetricsRecordFunc is an optional callback for recording job outcomes.
type MetricsRecordFunc func(job string, success bool)

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron      *cron.Cron
	dedup     Deduplicator
	verifier  ChainVerifier
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Scheduler. Either collaborator may be nil, which disables
// its job regardless of the schedule.
func New(dedup Deduplicator, verifier ChainVerifier, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	cl := cronLogger{l: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		dedup:    dedup,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (s *Scheduler) SetMetricsRecord(fn MetricsRecordFunc) {
	s.onMetrics = fn
}

// Start registers the enabled jobs and starts the runner. It returns the
// number of jobs scheduled; zero means nothing will run.
func (s *Scheduler) Start() (int, error) {
	jobs := 0
	if s.dedup != nil && s.cfg.DedupSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.DedupSchedule, s.job("dedup", s.RunDedup)); err != nil {
			return 0, fmt.Errorf("schedule dedup %q: %w", s.cfg.DedupSchedule, err)
		}
		jobs++
	}
	if s.verifier != nil && s.cfg.VerifySchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.VerifySchedule, s.job("ledger_verify", s.VerifyLedger)); err != nil {
			return 0, fmt.Errorf("schedule ledger verify %q: %w", s.cfg.VerifySchedule, err)
		}
		jobs++
	}
	if jobs > 0 {
		s.cron.Start()
	}
	return jobs, nil
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		err := fn(ctx)
		if s.onMetrics != nil {
			s.onMetrics(name, err == nil)
		}
	}
}

// RunDedup merges duplicate skills once.
func (s *Scheduler) RunDedup(ctx context.Context) error {
	groups, err := s.dedup.Deduplicate(ctx)
	if err != nil {
		s.logger.Error("maintenance: dedup failed", zap.Int("merged_groups", len(groups)), zap.Error(err))
		return err
	}
	if len(groups) > 0 {
		s.logger.Info("maintenance: merged duplicate skills", zap.Int("groups", len(groups)))
	}
	return nil
}

// VerifyLedger walks the ledger chain once.
func (s *Scheduler) VerifyLedger(ctx context.Context) error {
	if err := s.verifier.Verify(ctx); err != nil {
		s.logger.Error("maintenance: ledger verification failed", zap.Error(err))
		return err
	}
	s.logger.Debug("maintenance: ledger verified")
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
