package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Field patterns accepted by the storefront before anything is sent to the
// commerce API. The API remains the final authority.
var (
	nameLatin    = regexp.MustCompile(`^[A-Za-z]{2,30}(?:[ -][A-Za-z]{2,30})?$`)
	nameGeorgian = regexp.MustCompile(`^[ა-ჰ]{2,30}(?:[ -][ა-ჰ]{2,30})?$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	passwordRule = regexp.MustCompile(`^.{8,64}$`)
	phoneGE      = regexp.MustCompile(`^\+995[57]\d{8}$`)
	zipcodeRule  = regexp.MustCompile(`^\d{4,6}$`)
	addressRule  = regexp.MustCompile(`^.{5,120}$`)
	urlPattern   = regexp.MustCompile(`^(https?://)([\w-]+\.)+[\w-]+(/[\w\-./?%&=]*)?$`)
)

// Age bounds, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

// IsName accepts a Latin or Georgian name of 2-30 letters, optionally followed
// by a second word joined with a space or hyphen.
func IsName(v string) bool {
	v = strings.TrimSpace(v)
	return nameLatin.MatchString(v) || nameGeorgian.MatchString(v)
}

// IsEmail accepts local@domain.tld where the tld has at least two characters.
func IsEmail(v string) bool { return emailPattern.MatchString(strings.TrimSpace(v)) }

// IsPassword accepts 8 to 64 characters of any kind.
func IsPassword(v string) bool { return passwordRule.MatchString(strings.TrimSpace(v)) }

// IsPhoneGE accepts a Georgian mobile number: +995, then 5 or 7, then 8 digits.
func IsPhoneGE(v string) bool { return phoneGE.MatchString(strings.TrimSpace(v)) }

// IsAge accepts an integer age in [MinAge, MaxAge].
func IsAge(v int) bool { return v >= MinAge && v <= MaxAge }

// IsZipcode accepts 4 to 6 digits.
func IsZipcode(v string) bool { return zipcodeRule.MatchString(strings.TrimSpace(v)) }

// IsAddress accepts 5 to 120 characters of free text.
func IsAddress(v string) bool { return addressRule.MatchString(strings.TrimSpace(v)) }

// IsURL accepts an http(s) URL with a dotted host.
func IsURL(v string) bool { return urlPattern.MatchString(strings.TrimSpace(v)) }

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	stringRules := map[string]func(string) bool{
		"person_name": IsName,
		"email_addr":  IsEmail,
		"password":    IsPassword,
		"phone_ge":    IsPhoneGE,
		"zipcode":     IsZipcode,
		"address":     IsAddress,
		"http_url":    IsURL,
	}
	for tag, rule := range stringRules {
		rule := rule
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		})
	}

	return v
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", err.Field(), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email_addr":
		return "must be a valid email address"
	case "password":
		return "must be 8 to 64 characters long"
	case "person_name":
		return "must be 2-30 Latin or Georgian letters"
	case "phone_ge":
		return "must look like +9955XXXXXXXX or +9957XXXXXXXX"
	case "zipcode":
		return "must be 4 to 6 digits"
	case "address":
		return "must be 5 to 120 characters long"
	case "http_url":
		return "must be a valid http(s) URL"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
