package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultPhoneNumberRegex accepts digits, spaces, dashes and a leading plus
const DefaultPhoneNumberRegex = `^\+?[\d\- ]{4,20}$`

// Validator wraps go-playground validator
type Validator struct {
	validate *validator.Validate
	phone    *regexp.Regexp
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// New creates a validator using the default phone number pattern
func New() *Validator {
	return NewWithPhoneRegex(regexp.MustCompile(DefaultPhoneNumberRegex))
}

// NewWithPhoneRegex creates a validator whose "phone" tag matches against phone
func NewWithPhoneRegex(phone *regexp.Regexp) *Validator {
	if phone == nil {
		panic("validator: nil phone number pattern")
	}
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phone.MatchString(fl.Field().String())
	})

	return &Validator{
		validate: v,
		phone:    phone,
	}
}

// mustRegister adds a custom tag, panicking if validator rejects it
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %q: %v", tag, err))
	}
}

// Validate validates a struct
func (v *Validator) Validate(i interface{}) []ValidationError {
	var validationErrors []ValidationError

	err := v.validate.Struct(i)
	if err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []ValidationError{{Field: "", Tag: "invalid", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Value:   fmt.Sprintf("%v", fe.Value()),
				Message: v.msgForTag(fe),
			})
		}
	}

	return validationErrors
}

// ValidatePhone reports whether number matches the configured phone pattern
func (v *Validator) ValidatePhone(number string) bool {
	return v.phone.MatchString(number)
}

// ValidateVar validates a single variable
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) msgForTag(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "phone":
		return fmt.Sprintf("%s must match the pattern %s", field, v.phone.String())
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}
