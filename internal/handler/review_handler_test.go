package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewBody(restaurantID uint, food int) body {
	return body{
		"restaurant_id":       restaurantID,
		"visit_date":          time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
		"comments":            "Great pasta",
		"food_quality_rating": food,
		"service_rating":      4,
		"atmosphere_rating":   4,
		"price_rating":        3,
	}
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seedRestaurant(t, 10, "Trattoria")
	author := s.token(t, 5, model.RoleReviewer)

	rec := s.do(http.MethodPost, "/api/reviews", reviewBody(10, 5), author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review model.Review
	decodeJSON(t, rec, &review)

	path := "/api/reviews/" + uintString(review.ID)
	rec = s.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched model.Review
	decodeJSON(t, rec, &fetched)
	assert.Equal(t, 5, fetched.FoodQuality)

	rec = s.do(http.MethodGet, "/api/reviews/restaurant/10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Review
	decodeJSON(t, rec, &list)
	assert.Len(t, list, 1)

	stranger := s.token(t, 6, model.RoleReviewer)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, reviewBody(10, 2), stranger).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, nil, stranger).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/reviews/user/5", nil, stranger).Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPut, path, reviewBody(10, 3), author).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/reviews/user/5", nil, author).Code)

	adminToken := s.token(t, 99, model.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, nil, adminToken).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, "").Code)
}

func TestReviewRatingsOutOfRange(t *testing.T) {
	s := newTestServer(t)
	s.seedRestaurant(t, 10, "Trattoria")
	token := s.token(t, 5, model.RoleReviewer)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/reviews", reviewBody(10, 0), token).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/reviews", reviewBody(10, 6), token).Code)
}

func TestReviewRequiresReviewerAndRestaurant(t *testing.T) {
	s := newTestServer(t)
	s.seedRestaurant(t, 10, "Trattoria")

	repToken := s.token(t, 10, model.RoleRestaurantRep)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/reviews", reviewBody(10, 4), repToken).Code)

	reviewerToken := s.token(t, 5, model.RoleReviewer)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/reviews", reviewBody(77, 4), reviewerToken).Code)
}

func TestReviewCommentLength(t *testing.T) {
	s := newTestServer(t)
	s.seedRestaurant(t, 10, "Trattoria")
	author := s.token(t, 5, model.RoleReviewer)

	req := reviewBody(10, 4)
	req["comments"] = strings.Repeat("a", 2001)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/reviews", req, author).Code)

	req["comments"] = strings.Repeat("a", 2000)
	rec := s.do(http.MethodPost, "/api/reviews", req, author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review model.Review
	decodeJSON(t, rec, &review)

	req["comments"] = strings.Repeat("b", 2001)
	path := "/api/reviews/" + uintString(review.ID)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, path, req, author).Code)
}
