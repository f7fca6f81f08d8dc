// Package validation wraps go-playground/validator with a shared instance
// that reports fields by their JSON names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/thrive/internal/scoring"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error collects every failed constraint of a struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Get returns the shared validator. Custom tags:
//
//	budget_pref     one of the housing budget preference values
//	transport_pref  one of the transportation preference values
//	safety_pref     one of the safety importance values
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("budget_pref", func(fl validator.FieldLevel) bool {
			switch scoring.BudgetPreference(fl.Field().String()) {
			case scoring.BudgetLessThan30, scoring.Budget30To40, scoring.BudgetMoreThan40:
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("transport_pref", func(fl validator.FieldLevel) bool {
			switch scoring.TransportationPreference(fl.Field().String()) {
			case scoring.TransportCar, scoring.TransportPublicTransit, scoring.TransportBikeWalking:
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("safety_pref", func(fl validator.FieldLevel) bool {
			switch scoring.SafetyImportance(fl.Field().String()) {
			case scoring.SafetyVeryImportant, scoring.SafetySomewhatImportant, scoring.SafetyNotImportant:
				return true
			}
			return false
		})
	})
	return validate
}

// Struct validates s and returns *Error when any constraint fails.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: message(fe)}
	}
	return &Error{Fields: out}
}

var simpleMessages = map[string]string{
	"required":       "%s is required",
	"email":          "%s must be a valid email address",
	"uuid":           "%s must be a valid UUID",
	"latitude":       "%s must be a valid latitude (-90 to 90)",
	"longitude":      "%s must be a valid longitude (-180 to 180)",
	"budget_pref":    "%s must be one of: less-than-30, 30-40, more-than-40",
	"transport_pref": "%s must be one of: car, public-transit, bike-walking",
	"safety_pref":    "%s must be one of: very-important, somewhat-important, not-important",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func message(fe validator.FieldError) string {
	if tmpl, ok := simpleMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
