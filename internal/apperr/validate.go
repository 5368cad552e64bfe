package apperr

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Checker accumulates field errors so callers get every problem at once.
type Checker struct {
	fields []FieldError
}

// Add records a failure for field
func (c *Checker) Add(field, format string, args ...any) {
	c.fields = append(c.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Required fails when value is blank
func (c *Checker) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.Add(field, "%s is required", field)
		return false
	}
	return true
}

// Length checks the rune length of a non-empty value
func (c *Checker) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return
	}
	if min > 0 && n < min {
		c.Add(field, "%s must be at least %d characters", field, min)
	}
	if max > 0 && n > max {
		c.Add(field, "%s must be no more than %d characters", field, max)
	}
}

// Email checks a non-empty value looks like an e-mail address
func (c *Checker) Email(field, value string) {
	if value != "" && !emailPattern.MatchString(value) {
		c.Add(field, "%s must be a valid email", field)
	}
}

// Positive requires v > 0
func (c *Checker) Positive(field string, v decimal.Decimal) {
	if !v.IsPositive() {
		c.Add(field, "%s must be a positive number", field)
	}
}

// Cents requires v to have at most two decimal places
func (c *Checker) Cents(field string, v decimal.Decimal) {
	if !v.Equal(v.Truncate(2)) {
		c.Add(field, "%s must have at most 2 decimal places", field)
	}
}

// Future requires t to be after now
func (c *Checker) Future(field string, t, now time.Time) {
	if t.IsZero() {
		c.Add(field, "%s is required", field)
		return
	}
	if !t.After(now) {
		c.Add(field, "%s must be in the future", field)
	}
}

// OneOf requires value to be one of options
func (c *Checker) OneOf(field, value string, options ...string) {
	for _, o := range options {
		if value == o {
			return
		}
	}
	c.Add(field, "%s must be one of: %s", field, strings.Join(options, ", "))
}

// Err returns a VALIDATION_FAILED error, or nil when every check passed
func (c *Checker) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return Validation(c.fields...)
}
