// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"sharify/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("resource_type", func(fl validator.FieldLevel) bool {
		return models.ResourceType(fl.Field().String()).Valid()
	})
	return v
}

var messages = map[string]string{
	"required":      "The field '%s' is required.",
	"email":         "The field '%s' must be a valid email address.",
	"min":           "The field '%s' must be at least %s characters long.",
	"max":           "The field '%s' must be no longer than %s characters.",
	"url":           "The field '%s' must be a valid URL.",
	"dive":          "The field '%s' is invalid.",
	"resource_type": "The field '%s' must be one of PDF, Video, Link, Image, Note, Slide.",
}

func message(e validator.FieldError) string {
	field := e.Field()
	if e.Tag() == "password" {
		if err := ValidatePassword(fmt.Sprint(e.Value())); err != nil {
			return err.Error()
		}
	}
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, field, e.Param())
	}
	return fmt.Sprintf(msg, field)
}

// Fields validates s and returns a map of JSON field names to messages. An
// empty map means s is valid.
func Fields(s any) map[string]string {
	out := map[string]string{}
	var errs validator.ValidationErrors
	if err := validate.Struct(s); errors.As(err, &errs) {
		for _, e := range errs {
			if _, seen := out[e.Field()]; !seen {
				out[e.Field()] = message(e)
			}
		}
	}
	return out
}

// Struct validates s and returns a VALIDATION_ERROR AppError describing the
// first failing field, or nil.
func Struct(s any) error {
	fields := Fields(s)
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make([]string, len(names))
	for i, name := range names {
		details[i] = fields[name]
	}
	return &models.AppError{
		Code:    models.CodeValidation,
		Message: fields[names[0]],
		Err:     errors.New(strings.Join(details, " ")),
	}
}
