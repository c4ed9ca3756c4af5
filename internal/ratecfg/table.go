package ratecfg

import (
	"fmt"
	"math"
	"slices"
	"strings"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
)

// Entry is one label→factor row of a multiplier table.
type Entry struct {
	Label  string  `json:"label" yaml:"label"`
	Factor float64 `json:"factor" yaml:"factor"`
}

// Table is an ordered multiplier table with a declared default label.
// Table values are never modified in place; every edit returns a new Table.
type Table struct {
	Entries []Entry `json:"entries" yaml:"entries"`
	Default string  `json:"default" yaml:"default"`
}

// NewTable builds a table from entries in display order.
func NewTable(defaultLabel string, entries ...Entry) Table {
	return Table{Entries: slices.Clone(entries), Default: defaultLabel}
}

// Lookup returns the factor stored under label.
func (t Table) Lookup(label string) (float64, bool) {
	for _, e := range t.Entries {
		if e.Label == label {
			return e.Factor, true
		}
	}
	return 0, false
}

// MultiplierFor returns the factor for label, or the default label's factor
// when label is unknown. It never fails; a table whose default is missing
// yields 0, which Validate rejects before a table can be used.
func (t Table) MultiplierFor(label string) float64 {
	if f, ok := t.Lookup(label); ok {
		return f
	}
	f, _ := t.Lookup(t.Default)
	return f
}

// Has reports whether label is present.
func (t Table) Has(label string) bool {
	_, ok := t.Lookup(label)
	return ok
}

// Labels returns the labels in display order.
func (t Table) Labels() []string {
	labels := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		labels[i] = e.Label
	}
	return labels
}

// Add appends a new entry.
func (t Table) Add(label string, factor float64) (Table, error) {
	label = strings.TrimSpace(label)
	if err := checkLabel(label); err != nil {
		return t, err
	}
	if err := checkFactor(label, factor); err != nil {
		return t, err
	}
	if t.Has(label) {
		return t, apperrors.Config("label %q already exists", label)
	}

	out := t.clone()
	out.Entries = append(out.Entries, Entry{Label: label, Factor: factor})
	return out, nil
}

// Rename changes a label in place, keeping its position and factor.
// Renaming the default label moves the default along with it.
func (t Table) Rename(from, to string) (Table, error) {
	to = strings.TrimSpace(to)
	if err := checkLabel(to); err != nil {
		return t, err
	}
	idx := t.index(from)
	if idx < 0 {
		return t, apperrors.NotFound("label %q not found", from).WithContext("label", from)
	}
	if from == to {
		return t, nil
	}
	if t.Has(to) {
		return t, apperrors.Config("label %q already exists", to)
	}

	out := t.clone()
	out.Entries[idx].Label = to
	if out.Default == from {
		out.Default = to
	}
	return out, nil
}

// SetFactor replaces the factor of an existing label.
func (t Table) SetFactor(label string, factor float64) (Table, error) {
	if err := checkFactor(label, factor); err != nil {
		return t, err
	}
	idx := t.index(label)
	if idx < 0 {
		return t, apperrors.NotFound("label %q not found", label).WithContext("label", label)
	}

	out := t.clone()
	out.Entries[idx].Factor = factor
	return out, nil
}

// Remove deletes a label. The default label cannot be removed; pick another
// default first.
func (t Table) Remove(label string) (Table, error) {
	idx := t.index(label)
	if idx < 0 {
		return t, apperrors.NotFound("label %q not found", label).WithContext("label", label)
	}
	if label == t.Default {
		return t, apperrors.Config("label %q is the default and cannot be removed", label)
	}

	out := t.clone()
	out.Entries = slices.Delete(out.Entries, idx, idx+1)
	return out, nil
}

// SetDefault selects an existing label as the fallback.
func (t Table) SetDefault(label string) (Table, error) {
	if !t.Has(label) {
		return t, apperrors.NotFound("label %q not found", label).WithContext("label", label)
	}
	out := t.clone()
	out.Default = label
	return out, nil
}

// Validate checks the table invariants: non-empty unique labels, finite
// non-negative factors and a default label that is present.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Entries))
	for _, e := range t.Entries {
		if err := checkLabel(e.Label); err != nil {
			return err
		}
		if err := checkFactor(e.Label, e.Factor); err != nil {
			return err
		}
		if _, dup := seen[e.Label]; dup {
			return fmt.Errorf("duplicate label %q", e.Label)
		}
		seen[e.Label] = struct{}{}
	}
	if t.Default == "" {
		return fmt.Errorf("default label is required")
	}
	if _, ok := seen[t.Default]; !ok {
		return fmt.Errorf("default label %q is not in the table", t.Default)
	}
	return nil
}

func (t Table) index(label string) int {
	return slices.IndexFunc(t.Entries, func(e Entry) bool { return e.Label == label })
}

func (t Table) clone() Table {
	return Table{Entries: slices.Clone(t.Entries), Default: t.Default}
}

func checkLabel(label string) error {
	if label == "" {
		return apperrors.Config("label must not be empty")
	}
	return nil
}

func checkFactor(label string, factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor < 0 {
		return apperrors.Config("factor for %q must be a number >= 0", label)
	}
	return nil
}
