package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/digivite/digivite/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.  Field names
// in messages are the json names clients send.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the request validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.  The first failing field becomes a
// *service.ValidationError.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return service.Required(field)
	case "email":
		return service.Invalid(field, field+" is not a valid address")
	case "min", "gte":
		return service.Invalid(field, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "max", "lte":
		return service.Invalid(field, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
	case "oneof":
		return service.Invalid(field, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
	}
	return service.Invalid(field, field+" is invalid")
}
