package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

type Validator struct {
	validate   *validator.Validate
	maxLengths map[string]int
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{
		validate:   v,
		maxLengths: make(map[string]int),
	}
}

// RegisterMaxLength adds a tag that bounds a string field to max characters,
// so limits can come from configuration instead of struct tags.
func (v *Validator) RegisterMaxLength(tag string, max int) error {
	if err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= max
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", tag, err)
	}

	v.maxLengths[tag] = max
	return nil
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{Code: "INVALID", Message: err.Error()}}, false
	}

	errs := make([]ValidationError, 0, len(validationErrors))
	for _, err := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   err.Field(),
			Code:    strings.ToUpper(err.Tag()),
			Message: v.message(err),
		})
	}

	return errs, false
}

func (v *Validator) message(err validator.FieldError) string {
	if max, ok := v.maxLengths[err.Tag()]; ok {
		return fmt.Sprintf("%s must not exceed %d characters", err.Field(), max)
	}

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}
