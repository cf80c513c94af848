package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/text/unicode/norm"
)

// Submission is the client input for one score. Score is a pointer so a
// missing value can be told apart from zero.
type Submission struct {
	Name     string   `json:"name" validate:"required,notblank,max=100"`
	Score    *float64 `json:"score" validate:"required,finite"`
	Category string   `json:"difficulty" validate:"required,notblank,max=64,excludesall=/"`
}

// normalize trims and NFC-normalizes the text fields so visually equal
// names and categories compare equal.
func (s Submission) normalize() Submission {
	s.Name = normalizeText(s.Name)
	s.Category = normalizeText(s.Category)
	return s
}

func normalizeText(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

// newValidator builds the submission validator. Field errors are reported
// under their JSON names.
func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, fmt.Errorf("failed to register notblank validator: %w", err)
	}
	if err := v.RegisterValidation("finite", validateFinite); err != nil {
		return nil, fmt.Errorf("failed to register finite validator: %w", err)
	}
	return v, nil
}

// validateFinite rejects NaN and the infinities.
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		x := f.Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	default:
		return false
	}
}

// validationError turns the first field failure into ErrValidation with a
// short client-facing message. It returns the failing tag for metrics.
func validationError(err error) (string, error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "notblank":
		msg = field + " must not be blank"
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "finite":
		msg = field + " must be a finite number"
	case "excludesall":
		msg = fmt.Sprintf("%s must not contain %q", field, fe.Param())
	default:
		msg = field + " is invalid"
	}
	return fe.Tag(), fmt.Errorf("%w: %s", ErrValidation, msg)
}
