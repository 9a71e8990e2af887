package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/chart"
)

const (
	dashboardUpcomingLimit = 5
	dashboardReviewLimit   = 5
	trendMonths            = 12
)

// InsightService builds dashboards and chart data for a restaurant
type InsightService struct {
	restaurants  repository.RestaurantRepository
	reviews      repository.ReviewRepository
	reservations repository.ReservationRepository
	now          func() time.Time
}

func NewInsightService(restaurants repository.RestaurantRepository, reviews repository.ReviewRepository, reservations repository.ReservationRepository) *InsightService {
	return &InsightService{restaurants: restaurants, reviews: reviews, reservations: reservations, now: time.Now}
}

// ReservationsByDay counts reservations per weekday, Sunday first
func (s *InsightService) ReservationsByDay(ctx context.Context, restaurantID uint) ([]chart.Point, error) {
	reservations, err := s.reservations.ListByRestaurant(ctx, restaurantID, "")
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	var counts [7]int
	for _, r := range reservations {
		counts[r.ReservationDateTime.Weekday()]++
	}

	points := make([]chart.Point, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		points[day] = chart.Point{Label: day.String(), Value: counts[day]}
	}
	return points, nil
}

// ReservationTrend counts reservations per month over the last twelve
// months, the current month last.
func (s *InsightService) ReservationTrend(ctx context.Context, restaurantID uint) ([]chart.Point, error) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(trendMonths - 1), 0)

	reservations, err := s.reservations.ListByRestaurantSince(ctx, restaurantID, first)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	points := make([]chart.Point, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := 0; i < trendMonths; i++ {
		label := first.AddDate(0, i, 0).Format("Jan 2006")
		points[i] = chart.Point{Label: label}
		index[label] = i
	}
	for _, r := range reservations {
		if i, ok := index[r.ReservationDateTime.In(now.Location()).Format("Jan 2006")]; ok {
			points[i].Value++
		}
	}
	return points, nil
}

// RatingDistribution buckets reviews by rounded overall rating
func (s *InsightService) RatingDistribution(ctx context.Context, restaurantID uint) ([]chart.Point, error) {
	reviews, err := s.reviews.ListByRestaurant(ctx, restaurantID, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	var counts [5]int
	for i := range reviews {
		stars := int(math.Round(reviews[i].OverallRating()))
		stars = min(max(stars, 1), 5)
		counts[stars-1]++
	}

	points := make([]chart.Point, 5)
	for i := range points {
		label := fmt.Sprintf("%d Stars", i+1)
		if i == 0 {
			label = "1 Star"
		}
		points[i] = chart.Point{Label: label, Value: counts[i]}
	}
	return points, nil
}

func (s *InsightService) RepDashboard(ctx context.Context, caller *Caller) (*model.RepDashboard, error) {
	dashboard := &model.RepDashboard{
		WelcomeMessage:       fmt.Sprintf("Welcome, %s!", caller.Username),
		RestaurantID:         caller.UserID,
		UpcomingReservations: []model.Reservation{},
		RecentReviews:        []model.Review{},
	}

	restaurant, err := s.restaurants.FindByID(ctx, caller.UserID)
	switch {
	case err == nil:
		dashboard.HasProfile = restaurant.Name != ""
		dashboard.RestaurantName = restaurant.Name
	case errors.Is(err, repository.ErrNotFound):
		return dashboard, nil
	default:
		return nil, fmt.Errorf("find restaurant: %w", err)
	}

	if dashboard.PendingReservations, err = s.reservations.CountByStatus(ctx, caller.UserID, model.StatusPending); err != nil {
		return nil, fmt.Errorf("count pending reservations: %w", err)
	}
	upcoming, err := s.reservations.Upcoming(ctx, caller.UserID, s.now(), dashboardUpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming reservations: %w", err)
	}
	if upcoming != nil {
		dashboard.UpcomingReservations = upcoming
	}

	reviews, err := s.reviews.ListByRestaurant(ctx, caller.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	dashboard.AverageRatings = model.Averages(reviews)
	if len(reviews) > dashboardReviewLimit {
		reviews = reviews[:dashboardReviewLimit]
	}
	if reviews != nil {
		dashboard.RecentReviews = reviews
	}
	return dashboard, nil
}

func (s *InsightService) ReviewerDashboard(ctx context.Context, caller *Caller) (*model.ReviewerDashboard, error) {
	reviews, err := s.reviews.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return &model.ReviewerDashboard{
		WelcomeMessage: fmt.Sprintf("Welcome, %s!", caller.Username),
		MyReviews:      reviews,
		ReviewCount:    len(reviews),
	}, nil
}
