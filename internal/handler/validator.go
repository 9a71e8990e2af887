package handler

import (
	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns the request validator used by every route
func NewValidator() *validation.Validator {
	return validation.New(validation.Rule{
		Tag:     "reservation_status",
		Message: "must be one of Pending, Confirmed, Cancelled, Completed, NoShow",
		Fn: func(fl validator.FieldLevel) bool {
			return model.IsValidReservationStatus(fl.Field().String())
		},
	})
}
