// Package pipeline derives every dashboard view from a transaction list.
//
// All functions are pure: they never mutate their input and return fresh
// slices, so a caller can re-derive the whole view after each change.
package pipeline

import (
	"sort"
	"strings"

	"finboard/internal/core"
)

// FilterSpec holds the active search criteria. Zero fields are not applied.
type FilterSpec struct {
	Query    string    `json:"q,omitempty"`
	Category string    `json:"category,omitempty"`
	Kind     core.Kind `json:"kind,omitempty"`
	From     core.Date `json:"from"`
	To       core.Date `json:"to"`

	// Ignored lists the raw bounds that failed to parse and were dropped.
	Ignored []string `json:"ignored,omitempty"`
}

// ParseFilter builds a FilterSpec from raw input. An unparsable from/to
// bound is left unset and recorded in Ignored.
func ParseFilter(query, category, kind, from, to string) FilterSpec {
	spec := FilterSpec{
		Query:    strings.TrimSpace(query),
		Category: strings.TrimSpace(category),
		Kind:     core.Kind(strings.TrimSpace(kind)),
	}
	if v := strings.TrimSpace(from); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			spec.From = d
		} else {
			spec.Ignored = append(spec.Ignored, "from="+v)
		}
	}
	if v := strings.TrimSpace(to); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			spec.To = d
		} else {
			spec.Ignored = append(spec.Ignored, "to="+v)
		}
	}
	return spec
}

// IsEmpty reports whether no rule is active.
func (f FilterSpec) IsEmpty() bool {
	return f.Query == "" && f.Category == "" && f.Kind == "" && f.From.IsEmpty() && f.To.IsEmpty()
}

// Key is a stable string form of the active rules, used as a cache key.
func (f FilterSpec) Key() string {
	return strings.Join([]string{
		strings.ToLower(f.Query), f.Category, string(f.Kind), f.From.String(), f.To.String(),
	}, "\x1f")
}

// Match reports whether t passes every active rule.
func (f FilterSpec) Match(t core.Transaction) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Query)) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	hasBound := !f.From.IsEmpty() || !f.To.IsEmpty()
	if hasBound && t.Date.IsEmpty() {
		return false
	}
	if !f.From.IsEmpty() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsEmpty() && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

// ApplyFilters returns the transactions matching spec, in input order.
func ApplyFilters(list []core.Transaction, spec FilterSpec) []core.Transaction {
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if spec.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Expenses keeps only expense-kind transactions.
func Expenses(list []core.Transaction) []core.Transaction {
	return ApplyFilters(list, FilterSpec{Kind: core.Expense})
}

// SortByDateDesc returns a copy ordered newest first; equal dates keep their
// input order.
func SortByDateDesc(list []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}
