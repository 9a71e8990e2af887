package service

import (
	"context"
	"errors"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
)

// Caller identifies the authenticated user behind a request
type Caller struct {
	UserID   uint
	Username string
	Role     string
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == model.RoleAdmin
}

// OwnsRestaurant reports whether the caller is the rep for restaurantID.
// Admins own every restaurant.
func (c *Caller) OwnsRestaurant(restaurantID uint) bool {
	if c == nil {
		return false
	}
	if c.IsAdmin() {
		return true
	}
	return c.Role == model.RoleRestaurantRep && c.UserID == restaurantID
}

// MailDispatcher queues an email for background delivery
type MailDispatcher interface {
	Dispatch(msg mailer.Message)
}

// Notifier publishes a domain notification on a best-effort basis
type Notifier interface {
	Notify(ctx context.Context, n events.Notification)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, format, args...)
	}
	return err
}
