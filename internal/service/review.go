package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
)

type ReviewInput struct {
	RestaurantID      uint      `json:"restaurant_id" validate:"required"`
	VisitDate         time.Time `json:"visit_date" validate:"required"`
	Comments          string    `json:"comments" validate:"max=2000"`
	FoodQualityRating int       `json:"food_quality_rating" validate:"min=1,max=5"`
	ServiceRating     int       `json:"service_rating" validate:"min=1,max=5"`
	AtmosphereRating  int       `json:"atmosphere_rating" validate:"min=1,max=5"`
	PriceRating       int       `json:"price_rating" validate:"min=1,max=5"`
}

const maxCommentLength = 2000

func (in ReviewInput) validate() error {
	if err := in.validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Comments) > maxCommentLength {
		return newError(ErrInvalidInput, fmt.Sprintf("Comments cannot exceed %d characters.", maxCommentLength))
	}
	return nil
}

func (in ReviewInput) validRatings() bool {
	for _, r := range []int{in.FoodQualityRating, in.ServiceRating, in.AtmosphereRating, in.PriceRating} {
		if r < 1 || r > 5 {
			return false
		}
	}
	return true
}

type ReviewService struct {
	reviews     repository.ReviewRepository
	restaurants repository.RestaurantRepository
	notifier    Notifier
	log         *zap.Logger
}

func NewReviewService(reviews repository.ReviewRepository, restaurants repository.RestaurantRepository, notifier Notifier, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, restaurants: restaurants, notifier: notifier, log: log}
}

func (s *ReviewService) ListByRestaurant(ctx context.Context, restaurantID uint) ([]model.Review, error) {
	reviews, err := s.reviews.ListByRestaurant(ctx, restaurantID, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

// ListByUser is limited to the user themselves and admins
func (s *ReviewService) ListByUser(ctx context.Context, caller *Caller, userID uint) ([]model.Review, error) {
	if caller == nil || (caller.UserID != userID && !caller.IsAdmin()) {
		return nil, newError(ErrForbidden, "You can only view your own reviews.")
	}
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review with ID %d not found.", id)
	}
	return review, nil
}

func (s *ReviewService) Create(ctx context.Context, caller *Caller, in ReviewInput) (*model.Review, error) {
	if caller == nil || caller.Role != model.RoleReviewer {
		return nil, newError(ErrForbidden, "Only reviewers can write reviews.")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, notFound(err, "Restaurant with ID %d not found.", in.RestaurantID)
	}

	review := &model.Review{
		RestaurantID:     in.RestaurantID,
		UserID:           caller.UserID,
		Username:         caller.Username,
		VisitDate:        in.VisitDate,
		Comments:         strings.TrimSpace(in.Comments),
		FoodQuality:      in.FoodQualityRating,
		ServiceRating:    in.ServiceRating,
		AtmosphereRating: in.AtmosphereRating,
		PriceRating:      in.PriceRating,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	prometheus.RecordReviewOperation("create")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReview,
		Action:       events.ActionCreated,
		ID:           review.ID,
		RestaurantID: review.RestaurantID,
		Message:      fmt.Sprintf("%s reviewed %s", caller.Username, restaurant.Name),
		Data:         review,
	})
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, caller *Caller, id uint, in ReviewInput) error {
	if !in.validRatings() {
		return newError(ErrInvalidInput, "Ratings must be between 1 and 5.")
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Review with ID %d not found.", id)
	}
	if caller == nil || caller.UserID != review.UserID {
		return newError(ErrForbidden, "You can only edit your own reviews.")
	}

	review.VisitDate = in.VisitDate
	review.Comments = strings.TrimSpace(in.Comments)
	review.FoodQuality = in.FoodQualityRating
	review.ServiceRating = in.ServiceRating
	review.AtmosphereRating = in.AtmosphereRating
	review.PriceRating = in.PriceRating

	if err := s.reviews.Update(ctx, review); err != nil {
		return notFound(err, "Review with ID %d not found.", id)
	}

	prometheus.RecordReviewOperation("update")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReview,
		Action:       events.ActionUpdated,
		ID:           review.ID,
		RestaurantID: review.RestaurantID,
		Message:      fmt.Sprintf("%s updated a review", caller.Username),
		Data:         review,
	})
	return nil
}

// Delete is allowed for the author and for admins
func (s *ReviewService) Delete(ctx context.Context, caller *Caller, id uint) error {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Review with ID %d not found.", id)
	}
	if caller == nil || (caller.UserID != review.UserID && !caller.IsAdmin()) {
		return newError(ErrForbidden, "You can only delete your own reviews.")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return notFound(err, "Review with ID %d not found.", id)
	}

	prometheus.RecordReviewOperation("delete")
	s.notifier.Notify(ctx, events.Notification{
		Type:         events.TypeReview,
		Action:       events.ActionDeleted,
		ID:           id,
		RestaurantID: review.RestaurantID,
		Message:      "A review was deleted",
	})
	return nil
}
