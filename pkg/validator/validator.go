// Package validator wraps go-playground/validator with the custom
// validations used by the API input types.
package validator

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/tracking"
)

// phoneRegex accepts E.164-style numbers with an optional leading +.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError is a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field + ": " + e.Message)
	}
	return sb.String()
}

// New creates a Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("campaign_type", validateCampaignType)
	_ = v.RegisterValidation("campaign_status", validateCampaignStatus)
	_ = v.RegisterValidation("event_type", validateEventType)
	_ = v.RegisterValidation("phone", validatePhone)

	return &Validator{validate: v}
}

// Validate validates a struct and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		result = append(result, ValidationError{
			Field:   toSnakeCase(e.Field()),
			Message: formatErrorMessage(e),
		})
	}
	return result
}

func validateCampaignType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // let 'required' handle empty values
	}
	return campaign.Type(value).IsValid()
}

func validateCampaignStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return campaign.Status(value).IsValid()
}

func validateEventType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return tracking.EventType(value).IsValid()
}

func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return phoneRegex.MatchString(strings.ReplaceAll(value, " ", ""))
}

// formatErrorMessage converts a field error to a human-readable
// message.
func formatErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "campaign_type":
		return "must be one of: email, sms, both"
	case "campaign_status":
		return "must be one of: draft, active, paused, completed"
	case "event_type":
		return "must be a known event type"
	case "phone":
		return "must be a valid phone number"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// toSnakeCase converts PascalCase/camelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
