// Package validation checks form input before anything is sent to the
// API.  A form with errors is re-rendered with inline messages.
package validation

import (
    "fmt"
    "math"
    "strconv"
    "strings"
)

// FieldError is one failed rule on one form field.
type FieldError struct {
    Field   string
    Message string
}

func (e FieldError) Error() string {
    return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field errors.  Rules chain; a field keeps only its
// first error so later rules do not pile up messages on it.
type Validator struct {
    errors []FieldError
}

// NewValidator returns an empty validator.
func NewValidator() *Validator {
    return &Validator{errors: make([]FieldError, 0)}
}

func (v *Validator) add(field, msg string) *Validator {
    if !v.Has(field) {
        v.errors = append(v.errors, FieldError{Field: field, Message: msg})
    }
    return v
}

// Required fails when value is blank.  label is the human field name.
func (v *Validator) Required(field, label, value string) *Validator {
    if strings.TrimSpace(value) == "" {
        v.add(field, label+" is required")
    }
    return v
}

// MinLength fails when the trimmed value is shorter than min.
func (v *Validator) MinLength(field, label, value string, min int) *Validator {
    if len(strings.TrimSpace(value)) < min {
        v.add(field, fmt.Sprintf("%s must be at least %d characters", label, min))
    }
    return v
}

// MaxLength fails when value is longer than max.
func (v *Validator) MaxLength(field, label, value string, max int) *Validator {
    if len(value) > max {
        v.add(field, fmt.Sprintf("%s must be no more than %d characters", label, max))
    }
    return v
}

// Email does a basic shape check on a non-empty value.
func (v *Validator) Email(field, value string) *Validator {
    value = strings.TrimSpace(value)
    if value == "" {
        return v
    }
    at := strings.LastIndex(value, "@")
    if at <= 0 || at == len(value)-1 || strings.ContainsAny(value, " \t") {
        v.add(field, "Must be a valid email address")
    }
    return v
}

// Number parses raw into dst.  Blank, non-numeric and non-finite input
// all fail.
func (v *Validator) Number(field, label, raw string, dst *float64) *Validator {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return v.add(field, label+" is required")
    }
    f, err := strconv.ParseFloat(raw, 64)
    if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
        return v.add(field, label+" must be a number")
    }
    *dst = f
    return v
}

// Range fails when val is outside [min, max].  It is skipped for a field
// that already failed to parse.
func (v *Validator) Range(field, label string, val, min, max float64) *Validator {
    if v.Has(field) {
        return v
    }
    if val < min || val > max {
        v.add(field, fmt.Sprintf("%s must be between %s and %s", label, fmtNum(min), fmtNum(max)))
    }
    return v
}

// Min fails when val is below min.
func (v *Validator) Min(field, label string, val, min float64) *Validator {
    if v.Has(field) {
        return v
    }
    if val < min {
        v.add(field, fmt.Sprintf("%s must be at least %s", label, fmtNum(min)))
    }
    return v
}

// OneOf fails when value is not one of allowed.
func (v *Validator) OneOf(field, label, value string, allowed ...string) *Validator {
    for _, a := range allowed {
        if value == a {
            return v
        }
    }
    return v.add(field, fmt.Sprintf("%s must be one of: %s", label, strings.Join(allowed, ", ")))
}

// Has reports whether field already has an error.
func (v *Validator) Has(field string) bool {
    for _, e := range v.errors {
        if e.Field == field {
            return true
        }
    }
    return false
}

// HasErrors returns true if any rule failed.
func (v *Validator) HasErrors() bool {
    return len(v.errors) > 0
}

// Errors returns all field errors in the order they were found.
func (v *Validator) Errors() []FieldError {
    return v.errors
}

// Fields maps each failing field to its message, for inline display.
func (v *Validator) Fields() map[string]string {
    out := make(map[string]string, len(v.errors))
    for _, e := range v.errors {
        out[e.Field] = e.Message
    }
    return out
}

// FirstError returns the first message or "" if there are none.
func (v *Validator) FirstError() string {
    if len(v.errors) > 0 {
        return v.errors[0].Message
    }
    return ""
}

func fmtNum(f float64) string {
    return strconv.FormatFloat(f, 'f', -1, 64)
}
