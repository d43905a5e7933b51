package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the portal's custom
// business rules registered.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// Report json tag names instead of Go field names in errors.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

func (v *Validator) registerBusinessRules() {
	// option_label: one of the four answer labels.
	_ = v.validate.RegisterValidation("option_label", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "A", "B", "C", "D":
			return true
		}
		return false
	})

	// passing_score: a percentage threshold.
	_ = v.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// role_tag: free-form tag, but never empty after trimming and never
	// containing the comma used by the storage encoding.
	_ = v.validate.RegisterValidation("role_tag", func(fl validator.FieldLevel) bool {
		tag := strings.TrimSpace(fl.Field().String())
		return tag != "" && !strings.Contains(tag, ",") && len(tag) <= 50
	})

	// lesson_type: the supported lesson content kinds.
	_ = v.validate.RegisterValidation("lesson_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "video", "reading", "quiz":
			return true
		}
		return false
	})
}

// Validate runs struct validation and returns nil when the value passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a rule expression.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// ===== VALIDATION ERROR TYPES =====

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e))
	for i, ve := range e {
		messages[i] = ve.Error()
	}
	return strings.Join(messages, "; ")
}

func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ToValidationErrors converts go-playground errors into the portal's error
// slice, with a readable message per failed rule.
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	for _, fieldErr := range validationErrs {
		result = append(result, ValidationError{
			Field:   fieldErr.Field(),
			Message: messageForRule(fieldErr),
			Value:   fieldErr.Value(),
			Rule:    fieldErr.Tag(),
		})
	}
	return result
}

func messageForRule(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fieldErr.Param())
	case "option_label":
		return "must be one of the option labels A, B, C or D"
	case "passing_score":
		return "must be a percentage between 0 and 100"
	case "role_tag":
		return "must be a non-empty tag without commas (max 50 chars)"
	case "lesson_type":
		return "must be one of: video, reading, quiz"
	default:
		return fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
}
