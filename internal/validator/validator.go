package validator

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the engine's custom rules.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// ValidateDatasetID checks a single dataset id against the dataset_id rule.
func (v *Validator) ValidateDatasetID(dataset string) error {
	if err := v.structValidator.Var(dataset, "dataset_id"); err != nil {
		return NewValidationErrorWithRule("dataset", "must be a non-empty dataset id without path separators", "dataset_id", dataset)
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("dataset_id", validateDatasetID)
	validate.RegisterValidation("redis_url", validateRedisURL)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Dataset ids become export file names.
func validateDatasetID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || value == "." || value == ".." {
		return false
	}
	return !strings.ContainsAny(value, "/\\\x00")
}

func validateRedisURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "redis" || u.Scheme == "rediss" || u.Scheme == "unix") && (u.Host != "" || u.Path != "")
}
