package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReviewService(t *testing.T) (*ReviewService, *repotest.Store, *notifications) {
	t.Helper()
	store := repotest.New()
	n := &notifications{}
	store.Restaurants.Create(context.Background(), &model.Restaurant{ID: 1, Name: "Diner"})
	store.Users.Put(&model.User{ID: 20, Username: "critic", Email: "c@example.com", UserType: model.RoleReviewer})
	store.Users.Put(&model.User{ID: 21, Username: "other", Email: "o@example.com", UserType: model.RoleReviewer})
	return NewReviewService(store.Reviews, store.Restaurants, n, zap.NewNop()), store, n
}

func reviewInput(rating int) ReviewInput {
	return ReviewInput{
		RestaurantID: 1, VisitDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Comments: " Lovely ",
		FoodQualityRating: rating, ServiceRating: 4, AtmosphereRating: 3, PriceRating: 2,
	}
}

func TestCreateReview(t *testing.T) {
	svc, _, n := newReviewService(t)
	ctx := context.Background()

	review, err := svc.Create(ctx, reviewer(20), reviewInput(5))
	require.NoError(t, err)
	assert.Equal(t, "Lovely", review.Comments)

	got, err := svc.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "critic", got.Username)
	assert.Equal(t, 5, got.FoodQuality)
	assert.Equal(t, []string{"review.created"}, n.topics())
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _, _ := newReviewService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, reviewer(20), reviewInput(0))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, reviewer(20), reviewInput(6))
	assert.ErrorIs(t, err, ErrInvalidInput)

	in := reviewInput(3)
	in.Comments = strings.Repeat("é", 2001)
	_, err = svc.Create(ctx, reviewer(20), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
	in.Comments = strings.Repeat("é", 2000)
	_, err = svc.Create(ctx, reviewer(20), in)
	assert.NoError(t, err)

	in = reviewInput(3)
	in.RestaurantID = 99
	_, err = svc.Create(ctx, reviewer(20), in)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, rep(1), reviewInput(3))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateAndDeleteReviewOwnership(t *testing.T) {
	svc, _, n := newReviewService(t)
	ctx := context.Background()
	review, err := svc.Create(ctx, reviewer(20), reviewInput(3))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Update(ctx, reviewer(21), review.ID, reviewInput(1)), ErrForbidden)
	require.NoError(t, svc.Update(ctx, reviewer(20), review.ID, reviewInput(1)))
	got, _ := svc.Get(ctx, review.ID)
	assert.Equal(t, 1, got.FoodQuality)

	assert.ErrorIs(t, svc.Delete(ctx, reviewer(21), review.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin(), review.ID))
	_, err = svc.Get(ctx, review.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, reviewer(20), review.ID), ErrNotFound)
	assert.Equal(t, []string{"review.created", "review.updated", "review.deleted"}, n.topics())
}

func TestListReviewsByUser(t *testing.T) {
	svc, _, _ := newReviewService(t)
	ctx := context.Background()
	svc.Create(ctx, reviewer(20), reviewInput(4))

	reviews, err := svc.ListByUser(ctx, reviewer(20), 20)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	_, err = svc.ListByUser(ctx, reviewer(21), 20)
	assert.ErrorIs(t, err, ErrForbidden)

	reviews, err = svc.ListByUser(ctx, admin(), 21)
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}
