// Package validate provides the reusable field descriptors the request
// schemas are composed from. A descriptor is stateless: Validate inspects a
// raw decoded JSON value and returns the coerced value or a field Error.
// Checks always run in the same order: required -> nullable -> type -> format.
// Specialized descriptors run the base string/integer checks first and layer
// their format rule on top, so a non-string phone fails with WrongType, not
// BadFormat.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind classifies a validation failure.
type Kind string

const (
	MissingRequired  Kind = "missing_required"
	EmptyNotNullable Kind = "empty_not_nullable"
	WrongType        Kind = "wrong_type"
	BadFormat        Kind = "bad_format"
	OutOfRange       Kind = "out_of_range"
	AgeLimitExceeded Kind = "age_limit_exceeded"
)

// Error is a single-field validation failure.
type Error struct {
	Field  string
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

func fail(field string, kind Kind, detail string) *Error {
	return &Error{Field: field, Kind: kind, Detail: detail}
}

// String validates free-form text. Required governs whether an absent value
// is acceptable; Nullable governs whether an empty string is.
type String struct {
	Name     string
	Required bool
	Nullable bool
}

func (f String) Validate(raw any) (*string, error) {
	if raw == nil {
		if f.Required {
			return nil, fail(f.Name, MissingRequired, "value is required")
		}
		return nil, nil
	}
	if s, ok := raw.(string); ok && s == "" && !f.Nullable {
		return nil, fail(f.Name, EmptyNotNullable, "value must not be empty")
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fail(f.Name, WrongType, "value must be a string")
	}
	return &s, nil
}

// Integer validates integral numbers. JSON numbers arrive as float64; only
// integral values are accepted.
type Integer struct {
	Name     string
	Required bool
	Nullable bool
}

func (f Integer) Validate(raw any) (*int64, error) {
	if raw == nil {
		if f.Required {
			return nil, fail(f.Name, MissingRequired, "value is required")
		}
		return nil, nil
	}
	n, ok := intValue(raw)
	if !ok {
		return nil, fail(f.Name, WrongType, "value must be an integer")
	}
	return &n, nil
}

// Gender is an Integer restricted to the enumerated range {0, 1, 2}.
type Gender struct {
	Integer
}

func (f Gender) Validate(raw any) (*int64, error) {
	v, err := f.Integer.Validate(raw)
	if err != nil || v == nil {
		return v, err
	}
	if *v < 0 || *v > 2 {
		return nil, fail(f.Name, OutOfRange, "value must be 0, 1 or 2")
	}
	return v, nil
}

// ClientIDs validates a non-empty list of integers.
type ClientIDs struct {
	Name     string
	Required bool
}

func (f ClientIDs) Validate(raw any) ([]int64, error) {
	if f.Required && isEmptyList(raw) {
		return nil, fail(f.Name, MissingRequired, "list must not be empty")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fail(f.Name, WrongType, "value must be a list")
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		n, ok := intValue(item)
		if !ok {
			return nil, fail(f.Name, WrongType, "list elements must be integers")
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func isEmptyList(raw any) bool {
	if raw == nil {
		return true
	}
	items, ok := raw.([]any)
	return ok && len(items) == 0
}

// Arguments validates an opaque key/value map that must round-trip through
// JSON unchanged.
type Arguments struct {
	Name     string
	Required bool
	Nullable bool
}

func (f Arguments) Validate(raw any) (map[string]any, error) {
	if raw == nil {
		if f.Required {
			return nil, fail(f.Name, MissingRequired, "value is required")
		}
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fail(f.Name, WrongType, "value must be an object")
	}
	if len(m) == 0 && !f.Nullable {
		return nil, fail(f.Name, EmptyNotNullable, "value must not be empty")
	}
	if _, err := json.Marshal(m); err != nil {
		return nil, fail(f.Name, BadFormat, "value is not serializable")
	}
	return m, nil
}

// Phone validates a phone number: the textual form must start with 7 and be
// exactly 11 characters long. An empty string bypasses the format check.
type Phone struct {
	String
}

func (f Phone) Validate(raw any) (*string, error) {
	v, err := f.String.Validate(raw)
	if err != nil || v == nil || *v == "" {
		return v, err
	}
	if !strings.HasPrefix(*v, "7") || len(*v) != 11 {
		return nil, fail(f.Name, BadFormat, "value must start with 7 and contain 11 digits")
	}
	return v, nil
}

// Email validates an email address: it must contain an @. An empty string
// bypasses the format check.
type Email struct {
	String
}

func (f Email) Validate(raw any) (*string, error) {
	v, err := f.String.Validate(raw)
	if err != nil || v == nil || *v == "" {
		return v, err
	}
	if !strings.Contains(*v, "@") {
		return nil, fail(f.Name, BadFormat, "value must contain @")
	}
	return v, nil
}

// dateLayout accepts both padded and unpadded day/month ("10.11.2023" and
// "1.5.2023").
const (
	dateLayout      = "2.1.2006"
	canonicalLayout = "2006-01-02"
)

// Date validates a DD.MM.YYYY calendar date and coerces it to the canonical
// YYYY-MM-DD form. An empty string bypasses the format check and is kept
// as-is.
type Date struct {
	String
}

func (f Date) Validate(raw any) (*string, error) {
	v, err := f.String.Validate(raw)
	if err != nil || v == nil || *v == "" {
		return v, err
	}
	t, perr := time.Parse(dateLayout, *v)
	if perr != nil {
		return nil, fail(f.Name, BadFormat, "value must be a DD.MM.YYYY date")
	}
	canonical := t.Format(canonicalLayout)
	return &canonical, nil
}

const secondsPerYear = 365.25 * 24 * 60 * 60

// BirthDate is a Date whose computed age must not exceed MaxAgeYears. Now is
// injected so the age check is deterministic under test. On an age failure
// the returned value is the empty-string sentinel, which the owning schema
// stores alongside the error.
type BirthDate struct {
	Date
	MaxAgeYears int
	Now         func() time.Time
}

func (f BirthDate) Validate(raw any) (*string, error) {
	v, err := f.Date.Validate(raw)
	if err != nil || v == nil || *v == "" {
		return v, err
	}
	birth, perr := time.Parse(canonicalLayout, *v)
	if perr != nil {
		return nil, fail(f.Name, BadFormat, "value must be a DD.MM.YYYY date")
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	if years := int(now.Sub(birth).Seconds() / secondsPerYear); years > f.MaxAgeYears {
		sentinel := ""
		return &sentinel, fail(f.Name, AgeLimitExceeded, fmt.Sprintf("age must not exceed %d years", f.MaxAgeYears))
	}
	return v, nil
}

func intValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
		return 0, false
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
