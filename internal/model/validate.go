package model

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate applies struct defaults and then the validate tags of v.
// v must be a pointer to a struct.
func Validate(v any) error {
	if err := defaults.Set(v); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return err
	}
	return nil
}
