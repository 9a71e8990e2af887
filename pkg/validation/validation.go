package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts validator/v10 to echo.Validator
type Validator struct {
	validate *validator.Validate
	messages map[string]string
}

// Rule is a custom tag registered on top of the built-in ones
type Rule struct {
	Tag     string
	Message string
	Fn      validator.Func
}

// New builds a validator that reports fields by their json name
func New(rules ...Rule) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	messages := make(map[string]string, len(rules))
	for _, r := range rules {
		if err := v.RegisterValidation(r.Tag, r.Fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", r.Tag, err))
		}
		if r.Message != "" {
			messages[r.Tag] = r.Message
		}
	}

	return &Validator{validate: v, messages: messages}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, v.describe(fe))
	}
	return errors.New(strings.Join(parts, "; "))
}

func (v *Validator) describe(fe validator.FieldError) string {
	field := fe.Field()
	if msg, ok := v.messages[fe.Tag()]; ok {
		return fmt.Sprintf("%s %s", field, msg)
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
