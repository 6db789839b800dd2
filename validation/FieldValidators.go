// Package validation checks raw request fields before anything reaches the
// database. Rules report a Failure per field; the Gate collects all of them.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Failure is a single field-level validation message.
type Failure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failures is returned as an error when at least one rule failed.
type Failures []Failure

func (f Failures) Error() string {
	msgs := make([]string, 0, len(f))
	for _, failure := range f {
		msgs = append(msgs, failure.Field+": "+failure.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field has at least one failure.
func (f Failures) Has(field string) bool {
	for _, failure := range f {
		if failure.Field == field {
			return true
		}
	}
	return false
}

func (f *Failures) add(failure *Failure) {
	if failure != nil {
		*f = append(*f, *failure)
	}
}

func (f Failures) err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// Clock returns the current time. Tests pass a fixed one.
type Clock func() time.Time

var (
	namePattern  = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	skuPattern   = regexp.MustCompile(`^[A-Z]{3}\d{4}$`)
	phonePattern = regexp.MustCompile(`^\+32 \d{3} \d{2} \d{2} \d{2}$`)

	validate = newValidator()
)

// newValidator registers the domain tags used by the rules: personname,
// sku, bephone, strongpassword, wholenumber and maxdecimals=N.
func newValidator() *validator.Validate {
	v := validator.New()
	for tag, fn := range map[string]validator.Func{
		"personname": matches(namePattern),
		"sku":        matches(skuPattern),
		"bephone":    matches(phonePattern),
		"strongpassword": func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		},
		"wholenumber": func(fl validator.FieldLevel) bool {
			n := fl.Field().Float()
			return n == math.Trunc(n)
		},
		"maxdecimals": func(fl validator.FieldLevel) bool {
			places, err := strconv.Atoi(fl.Param())
			return err == nil && HasMaxDecimals(fl.Field().Float(), places)
		},
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func fail(field, message string) *Failure {
	return &Failure{Field: field, Message: message}
}

// Rule runs a validator tag against one field. Messages is keyed by the
// failing tag name; the "" entry is used for tags without their own message.
type Rule struct {
	Field    string
	Tag      string
	Messages map[string]string
}

func (r Rule) message(tag string) string {
	if msg, ok := r.Messages[tag]; ok {
		return msg
	}
	return r.Messages[""]
}

func (r Rule) check(value any) *Failure {
	err := validate.Var(value, r.Tag)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return fail(r.Field, r.message(errs[0].Tag()))
	}
	return fail(r.Field, r.message(""))
}

// StringRule checks a trimmed string.
type StringRule struct {
	Rule
}

// Check returns the trimmed value, or a failure.
func (r StringRule) Check(raw any) (string, *Failure) {
	if raw == nil {
		return "", fail(r.Field, r.message("required"))
	}
	s, ok := raw.(string)
	if !ok {
		return "", fail(r.Field, r.Field+" must be a string")
	}
	s = strings.TrimSpace(s)
	return s, r.check(s)
}

// NumberRule checks a numeric value. Anything that is not a number gets the
// "" message.
type NumberRule struct {
	Rule
}

func (r NumberRule) Check(raw any) (float64, *Failure) {
	if raw == nil {
		return 0, fail(r.Field, r.message("required"))
	}
	n, ok := toNumber(raw)
	if !ok {
		return 0, fail(r.Field, r.message(""))
	}
	return n, r.check(n)
}

// HasMaxDecimals reports whether raw has at most places fractional digits.
func HasMaxDecimals(raw any, places int) bool {
	var d decimal.Decimal
	switch v := raw.(type) {
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return false
		}
		d = parsed
	default:
		n, ok := toNumber(raw)
		if !ok {
			return false
		}
		d = decimal.NewFromFloat(n)
	}
	return d.Equal(d.Truncate(int32(places)))
}

// OneOf checks enum membership against a closed set.
func OneOf(field, label string, raw any, allowed []string) (string, *Failure) {
	msg := fmt.Sprintf("%s must be one of: %s", label, strings.Join(allowed, ", "))
	s, ok := raw.(string)
	if !ok {
		return "", fail(field, msg)
	}
	return s, Rule{Field: field, Tag: oneOfTag(allowed), Messages: map[string]string{"": msg}}.check(s)
}

// oneOfTag quotes values containing spaces, e.g. oneof=Books 'Home & Garden'.
func oneOfTag(allowed []string) string {
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		if strings.ContainsAny(a, " \t") {
			a = "'" + a + "'"
		}
		quoted[i] = a
	}
	return "oneof=" + strings.Join(quoted, " ")
}

var (
	emailRule = StringRule{Rule{
		Field: "email",
		Tag:   "required,email",
		Messages: map[string]string{
			"required": "Email is required",
			"":         "Please provide a valid email address",
		},
	}}
	passwordMessages = map[string]string{
		"required":       "Password is required",
		"min":            "Password must be at least 8 characters long",
		"strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	}
)

// Email checks syntax and returns the address trimmed and case-folded.
func Email(raw any) (string, *Failure) {
	s, _ := raw.(string)
	return emailRule.Check(strings.ToLower(s))
}

// Password checks presence, length and character classes. The value is not trimmed.
func Password(field string, raw any) (string, *Failure) {
	s, _ := raw.(string)
	return s, Rule{Field: field, Tag: "required,min=8,strongpassword", Messages: passwordMessages}.check(s)
}

// IsStrongPassword requires 8+ characters with a lowercase letter, an
// uppercase letter and a digit (ASCII classes).
func IsStrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// BirthDate requires a valid date that makes the user at least 13 at now.
func BirthDate(raw any, now time.Time) (time.Time, *Failure) {
	if isBlank(raw) {
		return time.Time{}, fail("dateOfBirth", "Date of birth is required")
	}
	t, ok := toDate(raw)
	if !ok {
		return time.Time{}, fail("dateOfBirth", "Please provide a valid date")
	}
	y, m, d := now.UTC().Date()
	minAge := time.Date(y-13, m, d, 0, 0, 0, 0, time.UTC)
	if t.After(minAge) {
		return t, fail("dateOfBirth", "User must be at least 13 years old")
	}
	return t, nil
}

// ReleaseDate requires a valid date no more than one year after now.
func ReleaseDate(raw any, now time.Time) (time.Time, *Failure) {
	if isBlank(raw) {
		return time.Time{}, fail("releaseDate", "Release date is required")
	}
	t, ok := toDate(raw)
	if !ok {
		return time.Time{}, fail("releaseDate", "Please provide a valid release date")
	}
	if t.After(now.AddDate(1, 0, 0)) {
		return t, fail("releaseDate", "Release date cannot be more than 1 year in the future")
	}
	return t, nil
}

// DiscontinueDate parses an optional discontinue date.
func DiscontinueDate(raw any) (time.Time, *Failure) {
	t, ok := toDate(raw)
	if !ok {
		return time.Time{}, fail("discontinueDate", "Please provide a valid discontinue date")
	}
	return t, nil
}

// CheckProductDates requires discontinue to be strictly after release.
func CheckProductDates(release, discontinue time.Time) *Failure {
	if !discontinue.After(release) {
		return fail("discontinueDate", "Discontinue date must be after release date")
	}
	return nil
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	return 0, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func toDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
