package events

import (
	"context"
	"strings"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
)

// Notification types
const (
	TypeReservation = "Reservation"
	TypeReview      = "Review"
)

// Notification actions
const (
	ActionCreated = "Created"
	ActionUpdated = "Updated"
	ActionDeleted = "Deleted"
)

// Notification is the payload published for reservation and review changes
type Notification struct {
	Type         string      `json:"type"`
	Action       string      `json:"action"`
	ID           uint        `json:"id"`
	RestaurantID uint        `json:"restaurant_id"`
	Timestamp    time.Time   `json:"timestamp"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data,omitempty"`
}

// Topic returns the routing name, e.g. "reservation.created"
func (n Notification) Topic() string {
	return strings.ToLower(n.Type) + "." + strings.ToLower(n.Action)
}

type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// NopPublisher drops every notification
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Notification) error { return nil }
func (NopPublisher) Close() error                                { return nil }

// Notifier publishes on a best-effort basis. Failures are logged and counted
// but never returned to the caller.
type Notifier struct {
	publisher Publisher
	log       *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewNotifier(publisher Publisher, log *zap.Logger, timeout time.Duration) *Notifier {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Notifier{publisher: publisher, log: log, timeout: timeout, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, notification Notification) {
	if notification.Timestamp.IsZero() {
		notification.Timestamp = n.now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	err := n.publisher.Publish(ctx, notification)
	prometheus.RecordEventPublish(notification.Topic(), err)
	if err != nil {
		n.log.Warn("Failed to publish notification",
			zap.String("topic", notification.Topic()),
			zap.Uint("id", notification.ID),
			zap.Error(err),
		)
		return
	}
	n.log.Debug("Notification published",
		zap.String("topic", notification.Topic()),
		zap.Uint("id", notification.ID),
	)
}
