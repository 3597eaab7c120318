package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("vaultcolor", func(fl validator.FieldLevel) bool {
		return IsValidColor(fl.Field().String())
	})
	return v
}

// Validate checks a struct against its `validate` tags. Besides the
// built-in rules, "vaultcolor" accepts only palette colours.
func Validate(v any) error {
	return validate.Struct(v)
}
