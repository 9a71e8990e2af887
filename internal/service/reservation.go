package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
)

// MaxPartySize is the largest party a single reservation can seat
const MaxPartySize = 20

type ReservationInput struct {
	RestaurantID        uint      `json:"restaurant_id" validate:"required"`
	ReservationDateTime time.Time `json:"reservation_date_time" validate:"required"`
	PartySize           int       `json:"party_size" validate:"min=1,max=20"`
	ContactName         string    `json:"contact_name" validate:"required,max=100"`
	Phone               string    `json:"phone" validate:"required,max=20"`
	Email               string    `json:"email" validate:"required,email,max=100"`
	SpecialRequests     string    `json:"special_requests" validate:"max=500"`
}

type ReservationService struct {
	reservations repository.ReservationRepository
	restaurants  repository.RestaurantRepository
	notifier     Notifier
	mail         MailDispatcher
	log          *zap.Logger
	now          func() time.Time
}

func NewReservationService(
	reservations repository.ReservationRepository,
	restaurants repository.RestaurantRepository,
	notifier Notifier,
	mail MailDispatcher,
	log *zap.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		restaurants:  restaurants,
		notifier:     notifier,
		mail:         mail,
		log:          log,
		now:          time.Now,
	}
}

// Create books a table. caller is nil for guests.
func (s *ReservationService) Create(ctx context.Context, caller *Caller, in ReservationInput) (*model.Reservation, error) {
	if in.PartySize < 1 || in.PartySize > MaxPartySize {
		return nil, newError(ErrInvalidInput, fmt.Sprintf("Party size must be between 1 and %d.", MaxPartySize))
	}
	if !in.ReservationDateTime.After(s.now()) {
		return nil, newError(ErrInvalidInput, "Reservation date must be in the future.")
	}

	restaurant, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, notFound(err, "Restaurant with ID %d not found.", in.RestaurantID)
	}

	reservation := &model.Reservation{
		RestaurantID:        in.RestaurantID,
		ReservationDateTime: in.ReservationDateTime,
		PartySize:           in.PartySize,
		ContactName:         strings.TrimSpace(in.ContactName),
		Phone:               strings.TrimSpace(in.Phone),
		Email:               strings.TrimSpace(in.Email),
		SpecialRequests:     strings.TrimSpace(in.SpecialRequests),
		Status:              model.StatusPending,
	}
	if caller != nil {
		id := caller.UserID
		reservation.UserID = &id
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	prometheus.RecordReservationOperation("create")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReservation,
		Action:       events.ActionCreated,
		ID:           reservation.ID,
		RestaurantID: reservation.RestaurantID,
		Message:      fmt.Sprintf("New reservation for %d from %s", reservation.PartySize, reservation.ContactName),
		Data:         reservation,
	})
	s.mail.Dispatch(mailer.ReservationReceivedEmail(
		reservation.Email, reservation.ContactName, restaurant.Name,
		reservation.ReservationDateTime, reservation.PartySize,
	))
	return reservation, nil
}

// Get is allowed for the guest who booked, the restaurant's rep and admins
func (s *ReservationService) Get(ctx context.Context, caller *Caller, id uint) (*model.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Reservation with ID %d not found.", id)
	}
	if !canView(caller, reservation) {
		return nil, newError(ErrForbidden, "You do not have access to this reservation.")
	}
	return reservation, nil
}

func canView(caller *Caller, r *model.Reservation) bool {
	if caller == nil {
		return false
	}
	if caller.OwnsRestaurant(r.RestaurantID) {
		return true
	}
	return r.UserID != nil && *r.UserID == caller.UserID
}

func (s *ReservationService) ListByRestaurant(ctx context.Context, caller *Caller, restaurantID uint, status string) ([]model.Reservation, error) {
	if !caller.OwnsRestaurant(restaurantID) {
		return nil, newError(ErrForbidden, "You can only view your own restaurant's reservations.")
	}
	if status != "" && !model.IsValidReservationStatus(status) {
		return nil, newError(ErrInvalidInput, "Invalid status %q.", status)
	}
	reservations, err := s.reservations.ListByRestaurant(ctx, restaurantID, status)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	return reservations, nil
}

func (s *ReservationService) ListByUser(ctx context.Context, caller *Caller) ([]model.Reservation, error) {
	if caller == nil {
		return nil, newError(ErrForbidden, "Sign in to view your reservations.")
	}
	reservations, err := s.reservations.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	return reservations, nil
}

// UpdateStatus moves a reservation to status and emails the guest when it
// is confirmed or cancelled.
func (s *ReservationService) UpdateStatus(ctx context.Context, caller *Caller, id uint, status string) error {
	if !model.IsValidReservationStatus(status) {
		return newError(ErrInvalidInput, "Invalid status %q.", status)
	}

	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Reservation with ID %d not found.", id)
	}
	if !caller.OwnsRestaurant(reservation.RestaurantID) {
		return newError(ErrForbidden, "You can only manage your own restaurant's reservations.")
	}

	if err := s.reservations.UpdateStatus(ctx, id, status); err != nil {
		return notFound(err, "Reservation with ID %d not found.", id)
	}
	previous := reservation.Status
	reservation.Status = status

	prometheus.RecordReservationOperation("update_status")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReservation,
		Action:       events.ActionUpdated,
		ID:           id,
		RestaurantID: reservation.RestaurantID,
		Message:      fmt.Sprintf("Reservation status changed from %s to %s", previous, status),
		Data:         reservation,
	})

	if status == model.StatusConfirmed || status == model.StatusCancelled {
		name := ""
		if restaurant, err := s.restaurants.FindByID(ctx, reservation.RestaurantID); err == nil {
			name = restaurant.Name
		} else {
			s.log.Warn("Failed to load restaurant for status email", zap.Uint("restaurant_id", reservation.RestaurantID), zap.Error(err))
		}
		s.mail.Dispatch(mailer.ReservationStatusEmail(
			reservation.Email, reservation.ContactName, name, reservation.ReservationDateTime, status,
		))
	}
	return nil
}

func (s *ReservationService) Delete(ctx context.Context, caller *Caller, id uint) error {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Reservation with ID %d not found.", id)
	}
	if !caller.OwnsRestaurant(reservation.RestaurantID) {
		return newError(ErrForbidden, "You can only manage your own restaurant's reservations.")
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return notFound(err, "Reservation with ID %d not found.", id)
	}

	prometheus.RecordReservationOperation("delete")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReservation,
		Action:       events.ActionDeleted,
		ID:           id,
		RestaurantID: reservation.RestaurantID,
		Message:      "Reservation deleted",
	})
	return nil
}
