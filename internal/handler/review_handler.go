package handler

import (
	"net/http"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReviewHandler serves /api/reviews
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) ListByRestaurant(c echo.Context) error {
	id, ok := parseID(c, "restaurantId")
	if !ok {
		return invalidID(c, "restaurantId")
	}

	reviews, err := h.reviews.ListByRestaurant(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "list reviews")
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ListByUser(c echo.Context) error {
	id, ok := parseID(c, "userId")
	if !ok {
		return invalidID(c, "userId")
	}

	reviews, err := h.reviews.ListByUser(c.Request().Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		return respondError(c, err, "list reviews")
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	review, err := h.reviews.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "load review")
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.ReviewInput
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	review, err := h.reviews.Create(c.Request().Context(), middleware.CallerFromContext(c), req)
	if err != nil {
		return respondError(c, err, "create review")
	}

	log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("restaurant_id", review.RestaurantID))
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	var req service.ReviewInput
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.reviews.Update(c.Request().Context(), middleware.CallerFromContext(c), id, req); err != nil {
		return respondError(c, err, "update review")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	if err := h.reviews.Delete(c.Request().Context(), middleware.CallerFromContext(c), id); err != nil {
		return respondError(c, err, "delete review")
	}
	return c.NoContent(http.StatusNoContent)
}
