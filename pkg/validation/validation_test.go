package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Username        string `json:"username" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Rating          int    `json:"rating" validate:"min=1,max=5"`
	Mood            string `json:"mood" validate:"omitempty,happy"`
}

func happyRule() Rule {
	return Rule{
		Tag:     "happy",
		Message: "must be happy",
		Fn: func(fl validator.FieldLevel) bool {
			return fl.Field().String() == "happy"
		},
	}
}

func TestValidatePasses(t *testing.T) {
	v := New(happyRule())
	err := v.Validate(&signup{
		Username: "ann", Email: "ann@example.com",
		Password: "secret", ConfirmPassword: "secret", Rating: 5, Mood: "happy",
	})
	assert.NoError(t, err)
}

func TestValidateReportsJSONNames(t *testing.T) {
	v := New(happyRule())
	err := v.Validate(&signup{
		Username: "ann", Email: "nope",
		Password: "123", ConfirmPassword: "456", Rating: 6, Mood: "sad",
	})
	if assert.Error(t, err) {
		msg := err.Error()
		assert.Contains(t, msg, "email must be a valid email address")
		assert.Contains(t, msg, "password must be at least 6 characters")
		assert.Contains(t, msg, "confirm_password must match password")
		assert.Contains(t, msg, "rating must be at most 5")
		assert.Contains(t, msg, "mood must be happy")
	}
}

func TestValidateRequired(t *testing.T) {
	v := New()
	err := v.Validate(&signup{Rating: 1})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "username is required")
	}
}
