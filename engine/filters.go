package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// FILTERS — Term / year / department selection via View
// ============================================================================
// Single-pass filter: checks every constraint per record in one loop.
// OR within a dimension, AND across dimensions, empty = no restriction.
// Returns a FilteredView (index list into the store) — zero data copy.
// ============================================================================

// FilterSpec selects records. Term and department matching ignores case.
type FilterSpec struct {
	Terms       []string   `json:"terms,omitempty"`
	Years       YearFilter `json:"years"`
	Departments []string   `json:"departments,omitempty"`
}

// IsEmpty reports whether the spec restricts nothing.
func (f FilterSpec) IsEmpty() bool {
	return len(f.Terms) == 0 && f.Years.IsAll() && len(f.Departments) == 0
}

// Validate checks the spec without touching any records.
func (f FilterSpec) Validate() error {
	if lo, hi, ok := f.Years.Range(); ok && lo > hi {
		return &FilterSpecError{Lo: lo, Hi: hi}
	}
	return nil
}

// ============================================================================
// YEAR FILTER — none | closed range | explicit set
// ============================================================================

type yearMode int

const (
	yearsAll yearMode = iota
	yearsRange
	yearsSet
)

// YearFilter constrains the year. The zero value matches every year. Range
// and set are separate constructors so a filter can never carry both.
type YearFilter struct {
	mode   yearMode
	lo, hi int
	set    []int
}

// AllYears matches every year.
func AllYears() YearFilter { return YearFilter{} }

// YearRange matches lo <= year <= hi.
func YearRange(lo, hi int) YearFilter {
	return YearFilter{mode: yearsRange, lo: lo, hi: hi}
}

// YearSet matches the listed years. An empty set matches every year.
func YearSet(years ...int) YearFilter {
	if len(years) == 0 {
		return AllYears()
	}
	return YearFilter{mode: yearsSet, set: append([]int(nil), years...)}
}

// IsAll reports whether the filter places no constraint.
func (y YearFilter) IsAll() bool { return y.mode == yearsAll }

// Range returns the bounds when the filter is a range.
func (y YearFilter) Range() (lo, hi int, ok bool) {
	return y.lo, y.hi, y.mode == yearsRange
}

// Set returns the years when the filter is a set.
func (y YearFilter) Set() ([]int, bool) {
	if y.mode != yearsSet {
		return nil, false
	}
	return append([]int(nil), y.set...), true
}

func (y YearFilter) String() string {
	switch y.mode {
	case yearsRange:
		return fmt.Sprintf("%d-%d", y.lo, y.hi)
	case yearsSet:
		parts := make([]string, len(y.set))
		for i, v := range y.set {
			parts[i] = fmt.Sprint(v)
		}
		return strings.Join(parts, ",")
	}
	return "all"
}

func (y YearFilter) matcher() func(int) bool {
	switch y.mode {
	case yearsRange:
		lo, hi := y.lo, y.hi
		return func(v int) bool { return lo <= v && v <= hi }
	case yearsSet:
		set := make(map[int]bool, len(y.set))
		for _, v := range y.set {
			set[v] = true
		}
		return func(v int) bool { return set[v] }
	}
	return nil
}

// FilterSpecError reports a year range whose lower bound exceeds its upper bound.
type FilterSpecError struct {
	Lo, Hi int
}

func (e *FilterSpecError) Error() string {
	return fmt.Sprintf("filter: year range lower bound %d is greater than upper bound %d", e.Lo, e.Hi)
}

// ============================================================================
// APPLY
// ============================================================================

// Apply returns the records of view that satisfy spec, in order. Filtering a
// FilteredView again yields a view over the same store. The department
// constraint is ignored when the store has no department column.
func Apply(view View, spec FilterSpec) (*FilteredView, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	store := view.Store()
	var terms, depts map[string]bool
	if len(spec.Terms) > 0 {
		terms = toLowerSet(spec.Terms)
	}
	if len(spec.Departments) > 0 && store.HasDepartment() {
		depts = toLowerSet(spec.Departments)
	}
	years := spec.Years.matcher()

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		r := view.At(i)
		if terms != nil && !terms[strings.ToLower(r.Term)] {
			continue
		}
		if years != nil && !years(r.Year) {
			continue
		}
		if depts != nil && !depts[strings.ToLower(r.Department)] {
			continue
		}
		indices = append(indices, view.Index(i))
	}

	return newFilteredView(store, indices, spec), nil
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
