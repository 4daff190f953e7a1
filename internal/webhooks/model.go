package webhooks

import (
	"time"

	"github.com/google/uuid"
)

// Event types a user can subscribe to.
const (
	EventSwapRequested     = "swap.requested"
	EventSwapStatusChanged = "swap.status_changed"
	EventSwapCompleted     = "swap.completed"
	EventRatingReceived    = "rating.received"
)

var knownEvents = map[string]bool{
	EventSwapRequested:     true,
	EventSwapStatusChanged: true,
	EventSwapCompleted:     true,
	EventRatingReceived:    true,
}

// Subscription is a user's request to receive matching events at URL.
type Subscription struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	UserID    int64     `json:"user_id"    db:"user_id"`
	URL       string    `json:"url"        db:"url"`
	Events    []string  `json:"events"     db:"events"`
	Secret    string    `json:"-"          db:"secret"`
	Active    bool      `json:"active"     db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Wants reports whether the subscription listens for eventType.
func (s *Subscription) Wants(eventType string) bool {
	for _, e := range s.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Event is the JSON body POSTed to subscribers.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Delivery records one delivery attempt.
type Delivery struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	EventType      string    `json:"event_type"`
	StatusCode     int       `json:"status_code"`
	Attempt        int       `json:"attempt"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

// CreateSubscriptionRequest is the payload for POST /webhooks.
type CreateSubscriptionRequest struct {
	URL    string   `json:"url"    binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}
