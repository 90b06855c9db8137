// Package validate holds the structural predicates used to validate entities
// and request fields. Every predicate returns the validated value or a single
// typed failure; callers compose them sequentially and stop at the first failure.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"docvault/internal/apperr"
)

var (
	ErrNotAString       = apperr.New(apperr.KindValidation, "NOT_A_STRING", "value is not a string")
	ErrNotAnArray       = apperr.New(apperr.KindValidation, "NOT_AN_ARRAY", "value is not an array")
	ErrExceedingLimit   = apperr.New(apperr.KindValidation, "EXCEEDING_CHARACTER_LIMIT", "value exceeds the character limit")
	ErrInvalidDate      = apperr.New(apperr.KindValidation, "INVALID_DATE", "invalid date")
	ErrInvalidUUID      = apperr.New(apperr.KindValidation, "INVALID_UUID", "invalid uuid")
	ErrInvalidEnumValue = apperr.New(apperr.KindValidation, "INVALID_ENUM_VALUE", "invalid enum value")
	ErrInvalidEmail     = apperr.New(apperr.KindValidation, "INVALID_EMAIL", "invalid email")
	ErrWeakPassword     = apperr.New(apperr.KindValidation, "WEAK_PASSWORD", "password does not meet the policy")
)

// DateLayout is the calendar-day layout accepted by Day.
const DateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// String checks that v has at most max characters.
func String(v string, max int) (string, error) {
	if utf8.RuneCountInString(v) > max {
		return "", ErrExceedingLimit.WithMessage("value cannot exceed %d characters", max)
	}
	return v, nil
}

// StringValue checks a loosely typed value (for example decoded JSON) is a
// string of at most max characters.
func StringValue(v any, max int) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrNotAString
	}
	return String(s, max)
}

// Strings checks that every element has at most max characters.
func Strings(vs []string, max int) ([]string, error) {
	for _, v := range vs {
		if _, err := String(v, max); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// StringSlice checks a loosely typed value is an array of strings, each of at
// most max characters. Element type is checked for all elements before length.
func StringSlice(v any, max int) ([]string, error) {
	var items []any
	switch t := v.(type) {
	case []string:
		return Strings(t, max)
	case []any:
		items = t
	default:
		return nil, ErrNotAnArray
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, ErrNotAString
		}
		out = append(out, s)
	}
	return Strings(out, max)
}

// Date rejects the zero time.
func Date(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Day parses a YYYY-MM-DD calendar day.
func Day(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, ErrInvalidDate.Wrap(err)
	}
	return t, nil
}

// UUID checks the canonical 8-4-4-4-12 hex form.
func UUID(v string) (string, error) {
	if len(v) != 36 {
		return "", ErrInvalidUUID
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", ErrInvalidUUID
	}
	return v, nil
}

// Enum checks v is one of allowed.
func Enum[T ~string](v string, allowed ...T) (T, error) {
	for _, a := range allowed {
		if string(a) == v {
			return a, nil
		}
	}
	return "", ErrInvalidEnumValue
}

// Email checks a loose local@domain.tld shape.
func Email(v string) (string, error) {
	if !emailPattern.MatchString(v) {
		return "", ErrInvalidEmail
	}
	return v, nil
}

// Password enforces the account password policy: at least 12 characters with
// an upper-case letter, a lower-case letter, a digit and one of @$!%*?&#.
func Password(v string) (string, error) {
	if utf8.RuneCountInString(v) < 12 {
		return "", ErrWeakPassword.WithMessage("password must be at least 12 characters long")
	}
	var upper, lower, digit, special bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("@$!%*?&#", r):
			special = true
		}
	}
	switch {
	case !upper:
		return "", ErrWeakPassword.WithMessage("password must contain at least one uppercase letter")
	case !lower:
		return "", ErrWeakPassword.WithMessage("password must contain at least one lowercase letter")
	case !digit:
		return "", ErrWeakPassword.WithMessage("password must contain at least one number")
	case !special:
		return "", ErrWeakPassword.WithMessage("password must contain at least one special character")
	}
	return v, nil
}
