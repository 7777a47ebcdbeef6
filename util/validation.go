package util

import (
	"fmt"

	"github.com/ariebrainware/rental-unit-registry/unitcode"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UnitCodeTag is the binding tag that accepts a well-formed unit number,
// formatted (XXXX-X-XXX-XX) or bare.
const UnitCodeTag = "unitcode"

func validateUnitCode(fl validator.FieldLevel) bool {
	return unitcode.Validate(unitcode.Normalize(fl.Field().String()))
}

// RegisterValidators installs the registry's custom tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterUnitCodeValidation(v)
}

// RegisterUnitCodeValidation installs the unitcode tag on v.
func RegisterUnitCodeValidation(v *validator.Validate) error {
	if err := v.RegisterValidation(UnitCodeTag, validateUnitCode); err != nil {
		return fmt.Errorf("register %s validation: %w", UnitCodeTag, err)
	}
	return nil
}
