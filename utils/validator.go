package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"leaddesk/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names so messages line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("lead_stage", func(fl validator.FieldLevel) bool {
		return models.Stage(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		return models.Source(fl.Field().String()).Valid()
	})
	return v
}

// ValidationError lists every failed field rule.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, ", ")
}

// Unwrap lets callers match validation failures with models.ErrInvalidLead.
func (e *ValidationError) Unwrap() error {
	return models.ErrInvalidLead
}

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrInvalidLead, err)
	}

	// Format validation errors
	var fields []string
	for _, err := range verrs {
		field := err.Field()
		param := err.Param()

		switch err.Tag() {
		case "required":
			fields = append(fields, field+" is required")
		case "min":
			fields = append(fields, field+" must be at least "+param+" characters")
		case "max":
			fields = append(fields, field+" must be at most "+param+" characters")
		case "email":
			fields = append(fields, field+" must be a valid email")
		case "numeric":
			fields = append(fields, field+" must be a number")
		case "lead_stage":
			fields = append(fields, fmt.Sprintf("%s must be one of %v", field, models.Stages))
		case "lead_status":
			fields = append(fields, fmt.Sprintf("%s must be one of %v", field, models.Statuses))
		case "lead_source":
			fields = append(fields, fmt.Sprintf("%s must be one of %v", field, models.Sources))
		default:
			fields = append(fields, field+" is invalid")
		}
	}

	return &ValidationError{Fields: fields}
}
