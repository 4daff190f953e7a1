package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrForbidden is returned when a user touches another user's subscription.
	ErrForbidden = errors.New("subscription belongs to another user")
	// ErrUnknownEvent is returned by Subscribe for an unsupported event name.
	ErrUnknownEvent = errors.New("unknown event")
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-SkillSwap-Signature"

// repo is satisfied by *Repository.
type repo interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListByUsers(ctx context.Context, userIDs []int64) ([]*Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordDelivery(ctx context.Context, d *Delivery) error
}

// MetricsRecorder is called once per delivery attempt.
type MetricsRecorder func(success bool)

// Service manages subscriptions and delivers events.
type Service struct {
	repo       repo
	httpClient *http.Client
	backoff    []time.Duration
	onMetrics  MetricsRecorder
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewService creates a Service. Failed deliveries are retried after 1s, 5s
// and 25s.
func NewService(r repo, logger *zap.Logger) *Service {
	return &Service{
		repo:       r,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		backoff:    []time.Duration{time.Second, 5 * time.Second, 25 * time.Second},
		logger:     logger,
	}
}

// SetMetricsRecorder configures the delivery callback.
func (s *Service) SetMetricsRecorder(fn MetricsRecorder) {
	s.onMetrics = fn
}

// SetBackoff replaces the retry delays. The number of attempts is
// len(delays)+1.
func (s *Service) SetBackoff(delays []time.Duration) {
	s.backoff = delays
}

// Subscribe validates the event names and stores a subscription with a
// fresh signing secret.
func (s *Service) Subscribe(ctx context.Context, userID int64, req *CreateSubscriptionRequest) (*Subscription, error) {
	for _, e := range req.Events {
		if !knownEvents[e] {
			return nil, fmt.Errorf("%w %q", ErrUnknownEvent, e)
		}
	}
	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	sub := &Subscription{UserID: userID, URL: req.URL, Events: req.Events, Secret: secret}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe deletes subID if userID owns it.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, subID uuid.UUID) error {
	sub, err := s.repo.GetByID(ctx, subID)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, subID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Subscription, error) {
	return s.repo.ListByUsers(ctx, []int64{userID})
}

// Dispatch sends eventType to every subscription of userIDs that listens for
// it. Deliveries run in the background and outlive ctx's cancellation.
func (s *Service) Dispatch(ctx context.Context, eventType string, userIDs []int64, payload map[string]any) {
	subs, err := s.repo.ListByUsers(ctx, userIDs)
	if err != nil {
		s.logger.Error("webhook: list subscribers", zap.String("event", eventType), zap.Error(err))
		return
	}

	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Payload: payload}
	bg := context.WithoutCancel(ctx)
	for _, sub := range subs {
		if !sub.Wants(eventType) {
			continue
		}
		s.wg.Add(1)
		go func(sub *Subscription) {
			defer s.wg.Done()
			s.deliver(bg, sub, event)
		}(sub)
	}
}

// Wait blocks until all in-flight deliveries have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) deliver(ctx context.Context, sub *Subscription, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("webhook: marshal event", zap.Error(err))
		return
	}
	signature := Sign(body, sub.Secret)

	for attempt := 1; attempt <= len(s.backoff)+1; attempt++ {
		if attempt > 1 {
			time.Sleep(s.backoff[attempt-2])
		}

		success, statusCode, errMsg := s.post(ctx, sub.URL, body, signature)

		if err := s.repo.RecordDelivery(ctx, &Delivery{
			SubscriptionID: sub.ID,
			EventType:      event.Type,
			StatusCode:     statusCode,
			Attempt:        attempt,
			Success:        success,
			ErrorMessage:   errMsg,
		}); err != nil {
			s.logger.Warn("webhook: record delivery", zap.Error(err))
		}
		if s.onMetrics != nil {
			s.onMetrics(success)
		}
		if success {
			return
		}
		s.logger.Warn("webhook: delivery failed",
			zap.String("url", sub.URL),
			zap.Int("attempt", attempt),
			zap.String("error", errMsg),
		)
	}
}

func (s *Service) post(ctx context.Context, url string, body []byte, signature string) (bool, int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, 0, err.Error()
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return true, resp.StatusCode, ""
}

// Sign returns the "sha256=<hex>" HMAC of body under secret. Receivers
// recompute it to authenticate a delivery.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
