// Package validation wraps go-playground/validator for checking backend
// records and form input, reporting failures as shared.ValidationError.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/books/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks structs against their validate tags
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their JSON tag and compares
// decimal.Decimal fields numerically, so tags like gte=0 work on amounts.
func New() *Validator {
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
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// Struct validates s and converts field failures to a *shared.ValidationError
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &shared.ValidationError{}
	for _, e := range verrs {
		out.Fields = append(out.Fields, shared.FieldError{
			Field:   fieldPath(e),
			Message: Message(e),
		})
	}
	return out
}

// Slice validates each element of a slice, stopping at the first failure
func Slice[T any](val *Validator, items []T) error {
	for i := range items {
		if err := val.Struct(items[i]); err != nil {
			return err
		}
	}
	return nil
}

// fieldPath strips the top-level struct name from the namespace
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// Message returns a human-readable validation message
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "must have at least " + e.Param() + " entries"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "url":
		return "must be a valid URL"
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid"
	}
}
