package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds free-form descriptions.
const MaxDescriptionLength = 200

type (
	Kind  string
	Theme string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string `json:"id"`
		Description string `json:"desc"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"type"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
	}

	// BudgetMap maps a category name to its spending limit.
	BudgetMap map[string]Money
)

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrEmptyDescription   = errors.New("empty description")
)

// FieldError describes one rejected field of a transaction.
type FieldError struct {
	Field string `json:"field"`
	Err   error  `json:"-"`
}

func (f FieldError) Error() string {
	return f.Field + ": " + f.Err.Error()
}

// ValidationError collects every field problem found on a transaction.
// It matches ErrInvalidTransaction and each field's sentinel with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidTransaction, strings.Join(parts, "; "))
}

func (v *ValidationError) Unwrap() []error {
	errs := []error{ErrInvalidTransaction}
	for _, f := range v.Fields {
		errs = append(errs, f.Err)
	}
	return errs
}

func (v *ValidationError) add(field string, err error) {
	v.Fields = append(v.Fields, FieldError{Field: field, Err: err})
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset or failed to parse.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthKey returns the zero-padded YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON leaves the date zero when the value does not parse, so a
// malformed stored date is carried as invalid rather than failing the load.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// Sign returns +1 for income and -1 for expense.
func (k Kind) Sign() int64 {
	if k == Income {
		return 1
	}
	return -1
}

func (t Theme) Validate() error {
	switch t {
	case ThemeDark, ThemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))
	}
}

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Validate checks every user-supplied field. The ID is not checked here: the
// ledger assigns it.
func (t Transaction) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(t.Description) == "" {
		verr.add("desc", ErrEmptyDescription)
	} else if len(t.Description) > MaxDescriptionLength {
		verr.add("desc", fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength))
	}
	if err := t.Amount.Validate(); err != nil {
		verr.add("amount", err)
	}
	if err := t.Kind.Validate(); err != nil {
		verr.add("type", err)
	}
	if err := t.Date.Validate(); err != nil {
		verr.add("date", err)
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// SignedCents returns the amount with the sign implied by the kind.
func (t Transaction) SignedCents() int64 {
	return t.Kind.Sign() * t.Amount.Cents
}

// DefaultBudgets returns the starter budget map.
func DefaultBudgets() BudgetMap {
	return BudgetMap{
		"Food":      FromUnits(800),
		"Transport": FromUnits(500),
		"Rent":      FromUnits(1500),
		"Utilities": FromUnits(600),
		"Savings":   FromUnits(1000),
		"Business":  FromUnits(0),
		"Salary":    FromUnits(0),
		"Misc":      FromUnits(300),
	}
}

// Clone returns an independent copy of the map.
func (b BudgetMap) Clone() BudgetMap {
	out := make(BudgetMap, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Validate rejects negative limits and blank category names.
func (b BudgetMap) Validate() error {
	for cat, limit := range b {
		if strings.TrimSpace(cat) == "" {
			return errors.New("budget category cannot be empty")
		}
		if limit.Cents < 0 {
			return fmt.Errorf("%w: negative limit for %q", ErrInvalidAmount, cat)
		}
	}
	return nil
}
