// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// maxEmailLength is the RFC 5321 limit on a forward path.
const maxEmailLength = 254

// DefaultPasswordPolicy is the complexity rule applied to every password chosen by a user.
var DefaultPasswordPolicy = PasswordStrength{
	MinLength:      8,
	MaxLength:      128,
	RequireUpper:   true,
	RequireLower:   true,
	RequireNumber:  true,
	RequireSpecial: true,
}

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
// The original error stays in the chain so field details can be extracted with errors.As.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
}

// FieldErrors flattens a validation.Errors found in err's chain into field -> message.
// Returns nil when err carries no field-level errors.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !apperrors.As(err, &verrs) {
		return nil
	}

	details := make(map[string]string, len(verrs))
	for field, fieldErr := range verrs {
		if fieldErr == nil {
			continue
		}
		details[field] = fieldErr.Error()
	}
	return details
}

// PasswordStrength is a validation.Rule for password complexity. Lengths count
// runes, and a zero MaxLength means unbounded.
type PasswordStrength struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	length := utf8.RuneCountInString(s)
	if length < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return validation.NewError(
			"validation_password_max_length",
			"password must be at most "+strconv.Itoa(p.MaxLength)+" characters",
		)
	}

	if p.RequireUpper && !strings.ContainsFunc(s, unicode.IsUpper) {
		return validation.NewError(
			"validation_password_uppercase",
			"password must contain at least one uppercase letter",
		)
	}

	if p.RequireLower && !strings.ContainsFunc(s, unicode.IsLower) {
		return validation.NewError(
			"validation_password_lowercase",
			"password must contain at least one lowercase letter",
		)
	}

	if p.RequireNumber && !strings.ContainsFunc(s, unicode.IsNumber) {
		return validation.NewError("validation_password_number", "password must contain at least one number")
	}

	if p.RequireSpecial && !strings.ContainsFunc(s, isSpecial) {
		return validation.NewError(
			"validation_password_special",
			"password must contain at least one special character",
		)
	}

	return nil
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Email accepts addresses like local@domain.tld up to 254 bytes.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) <= maxEmailLength && emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Matches returns a rule asserting the value equals other, e.g. a password confirmation.
func Matches(other string, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return validation.NewError("validation_mismatch", message)
		}
		return nil
	})
}
