// Package validation wraps go-playground/validator with the tags the client
// needs and turns failures into errors.ValidationError values.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"events-client/internal/common/errors"
	"events-client/internal/models"
)

// Validator provides struct and field validation
type Validator struct {
	validator *validator.Validate
}

// FieldError is a single validation failure
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns a shared Validator
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New creates a Validator with the custom tags registered
func New() *Validator {
	v := validator.New()
	registerValidators(v)

	// Report json names, which is what users see in flags and payloads
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validator: v}
}

// Struct validates a struct using its validate tags
func (v *Validator) Struct(s interface{}) error {
	if err := v.validator.Struct(s); err != nil {
		return format(err)
	}
	return nil
}

// Var validates a single value against tag
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validator.Var(field, tag); err != nil {
		return format(err)
	}
	return nil
}

// Fields returns the individual failures in err, or nil
func (v *Validator) Fields(s interface{}) []FieldError {
	return extract(v.validator.Struct(s))
}

func format(err error) error {
	fields := extract(err)
	if len(fields) == 1 {
		return errors.ValidationError(fields[0].Message)
	}

	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Message
	}
	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

func extract(err error) []FieldError {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		})
	}
	return fields
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = "value"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "iso_date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "category":
		return fmt.Sprintf("%s must be All or one of: %s", field, strings.Join(categoryNames(), ", "))
	case "visibility":
		return fmt.Sprintf("%s must be public or private", field)
	case "month":
		return fmt.Sprintf("%s must be a month in YYYY-MM form", field)
	case "cron_schedule":
		return fmt.Sprintf("%s must be a valid cron schedule", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func registerValidators(v *validator.Validate) {
	// Calendar date as the API expects it; empty is left to "required"
	v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := models.ParseDate(s)
		return err == nil
	})

	// Event category filter, including the All sentinel
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || strings.EqualFold(s, string(models.CategoryAll)) {
			return true
		}
		_, ok := models.ParseCategory(s)
		return ok
	})

	v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, ok := models.ParseVisibility(s)
		return ok
	})

	v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse("2006-01", s)
		return err == nil
	})

	// Standard five-field cron or a descriptor such as "@every 1m"
	v.RegisterValidation("cron_schedule", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
}

func categoryNames() []string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return names
}
