// Package validation holds form definitions and field rules for user input.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	return v
}

// Struct validates a form and returns field messages keyed by form field
// name, or nil when the form is valid.
func Struct(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"__all__": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Enter a valid value."
	}
}

// ValidateUsername accepts 1-150 characters of letters, digits and @.+-_
func ValidateUsername(username string) error {
	if username == "" || len(username) > 150 {
		return fmt.Errorf("username must be between 1 and 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidateSlug validates a group slug.
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug must contain only letters, numbers, underscores or hyphens")
	}
	if len(slug) > 50 {
		return fmt.Errorf("slug must be at most 50 characters")
	}
	return nil
}

// ValidatePassword checks length and rejects entirely numeric passwords.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters")
	}
	if strings.Trim(password, "0123456789") == "" {
		return fmt.Errorf("password cannot be entirely numeric")
	}
	return nil
}
