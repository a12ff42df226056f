package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/emphasys/identity/internal/core/domain"
)

// requestValidator plugs go-playground/validator into echo's c.Validate.
// Messages name fields by their json keys.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator assigned to echo.Echo.Validator.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &requestValidator{v: v}
}

// Validate joins every field failure into one error wrapping domain.ErrValidation.
func (rv *requestValidator) Validate(req any) error {
	err := rv.v.Struct(req)
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}
	msgs := make([]string, len(failures))
	for i, fe := range failures {
		msgs[i] = describe(fe)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "eqfield":
		return fe.Field() + " must match " + snake(fe.Param())
	}
	return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return snake(f.Name)
	}
	return name
}

// snake turns a Go field name such as NewPassword into new_password.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
