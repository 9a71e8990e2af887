package service

import (
	"context"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository/repotest"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReservationService(t *testing.T) (*ReservationService, *repotest.Store, *notifications, *outbox) {
	t.Helper()
	store := repotest.New()
	n := &notifications{}
	mail := &outbox{}
	store.Restaurants.Create(context.Background(), &model.Restaurant{ID: 5, Name: "Chez Nous"})
	svc := NewReservationService(store.Reservations, store.Restaurants, n, mail, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, store, n, mail
}

func reservationInput() ReservationInput {
	return ReservationInput{
		RestaurantID: 5, ReservationDateTime: testNow.Add(48 * time.Hour), PartySize: 4,
		ContactName: "Pat", Phone: "555-0100", Email: "pat@example.com",
	}
}

func TestAnonymousReservation(t *testing.T) {
	svc, _, n, mail := newReservationService(t)

	r, err := svc.Create(context.Background(), nil, reservationInput())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Nil(t, r.UserID)
	assert.Equal(t, []string{"reservation.created"}, n.topics())
	assert.Equal(t, mailer.TemplateReservationNew, mail.last().Template)
	assert.Equal(t, "pat@example.com", mail.last().To)
}

func TestReservationByLoggedInUser(t *testing.T) {
	svc, _, _, _ := newReservationService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, reviewer(30), reservationInput())
	require.NoError(t, err)
	require.NotNil(t, r.UserID)
	assert.Equal(t, uint(30), *r.UserID)

	mine, err := svc.ListByUser(ctx, reviewer(30))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.Get(ctx, reviewer(30), r.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, rep(5), r.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, reviewer(31), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(ctx, rep(6), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReservationValidation(t *testing.T) {
	svc, _, _, _ := newReservationService(t)
	ctx := context.Background()

	in := reservationInput()
	in.ReservationDateTime = testNow.Add(-time.Minute)
	_, err := svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = reservationInput()
	in.PartySize = MaxPartySize + 1
	_, err = svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.PartySize = 0
	_, err = svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.PartySize = MaxPartySize
	_, err = svc.Create(ctx, nil, in)
	assert.NoError(t, err)

	in = reservationInput()
	in.RestaurantID = 404
	_, err = svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReservationStatus(t *testing.T) {
	svc, store, n, mail := newReservationService(t)
	ctx := context.Background()
	r, err := svc.Create(ctx, nil, reservationInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, rep(5), r.ID, "Seated"), ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, rep(5), 999, model.StatusConfirmed), ErrNotFound)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, rep(6), r.ID, model.StatusConfirmed), ErrForbidden)

	require.NoError(t, svc.UpdateStatus(ctx, rep(5), r.ID, model.StatusConfirmed))
	got, _ := store.Reservations.FindByID(ctx, r.ID)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, mailer.TemplateReservationStatus, mail.last().Template)
	assert.Contains(t, mail.last().HTMLBody, "Chez Nous")

	sent := len(mail.templates())
	require.NoError(t, svc.UpdateStatus(ctx, rep(5), r.ID, model.StatusCompleted))
	assert.Len(t, mail.templates(), sent, "completed does not email the guest")

	assert.Equal(t, []string{"reservation.created", "reservation.updated", "reservation.updated"}, n.topics())
}

func TestListReservationsByRestaurant(t *testing.T) {
	svc, _, _, _ := newReservationService(t)
	ctx := context.Background()
	svc.Create(ctx, nil, reservationInput())
	second, _ := svc.Create(ctx, nil, reservationInput())
	require.NoError(t, svc.UpdateStatus(ctx, rep(5), second.ID, model.StatusCancelled))

	all, err := svc.ListByRestaurant(ctx, rep(5), 5, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := svc.ListByRestaurant(ctx, rep(5), 5, model.StatusCancelled)
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)

	_, err = svc.ListByRestaurant(ctx, rep(5), 5, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.ListByRestaurant(ctx, rep(6), 5, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteReservation(t *testing.T) {
	svc, _, n, _ := newReservationService(t)
	ctx := context.Background()
	r, _ := svc.Create(ctx, nil, reservationInput())

	assert.ErrorIs(t, svc.Delete(ctx, rep(6), r.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, rep(5), r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, rep(5), r.ID), ErrNotFound)
	assert.Contains(t, n.topics(), "reservation.deleted")
}
