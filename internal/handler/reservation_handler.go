package handler

import (
	"net/http"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required,reservation_status"`
}

// ReservationHandler serves /api/reservations
type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Create books a table; guests may book without logging in
func (h *ReservationHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.ReservationInput
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	reservation, err := h.reservations.Create(c.Request().Context(), middleware.CallerFromContext(c), req)
	if err != nil {
		return respondError(c, err, "create reservation")
	}

	log.Info("Reservation created",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("restaurant_id", reservation.RestaurantID),
		zap.Bool("guest", reservation.UserID == nil))
	return c.JSON(http.StatusCreated, reservation)
}

func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	reservation, err := h.reservations.Get(c.Request().Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		return respondError(c, err, "load reservation")
	}
	return c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandler) ListByRestaurant(c echo.Context) error {
	id, ok := parseID(c, "restaurantId")
	if !ok {
		return invalidID(c, "restaurantId")
	}

	reservations, err := h.reservations.ListByRestaurant(c.Request().Context(), middleware.CallerFromContext(c), id, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err, "list reservations")
	}
	return c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) ListMine(c echo.Context) error {
	reservations, err := h.reservations.ListByUser(c.Request().Context(), middleware.CallerFromContext(c))
	if err != nil {
		return respondError(c, err, "list reservations")
	}
	return c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	var req StatusRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.reservations.UpdateStatus(c.Request().Context(), middleware.CallerFromContext(c), id, req.Status); err != nil {
		return respondError(c, err, "update reservation status")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	if err := h.reservations.Delete(c.Request().Context(), middleware.CallerFromContext(c), id); err != nil {
		return respondError(c, err, "delete reservation")
	}
	return c.NoContent(http.StatusNoContent)
}
