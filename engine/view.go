package engine

import (
	"sort"
	"strings"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine reads records through View and never copies them.
//
// Implementations:
//   Store         — the loaded, immutable record sequence
//   FilteredView  — filtered subset (indices into the store, zero-copy)
//
// A store is loaded once by the caller and passed down. Nothing in this
// package caches it.
// ============================================================================

// View provides indexed access to records of one Store.
type View interface {
	Len() int
	At(i int) *Record
	// Index maps position i of the view to the record's position in Store().
	Index(i int) int
	Store() *Store
}

// ============================================================================
// STORE
// ============================================================================

// Facts describes schema-level properties of a store that records alone
// cannot tell: whether the source had a department column and which wide
// per-department enrollment columns it had.
type Facts struct {
	HasDepartment bool     `json:"hasDepartment"`
	Departments   []string `json:"departments"`
}

// Store is an ordered, immutable sequence of records. It is safe for
// concurrent reads.
type Store struct {
	records []Record
	facts   Facts
}

// NewStore wraps records. The slice is owned by the store afterwards.
func NewStore(records []Record, facts Facts) *Store {
	f := Facts{HasDepartment: facts.HasDepartment}
	f.Departments = append([]string(nil), facts.Departments...)
	return &Store{records: records, facts: f}
}

func (s *Store) Len() int            { return len(s.records) }
func (s *Store) At(i int) *Record    { return &s.records[i] }
func (s *Store) Index(i int) int     { return i }
func (s *Store) Store() *Store       { return s }
func (s *Store) Facts() Facts        { return s.facts }
func (s *Store) HasDepartment() bool { return s.facts.HasDepartment }

// Departments returns the department names known to the store: distinct
// Department values when the source had a department column, otherwise the
// wide enrollment column names.
func (s *Store) Departments() []string {
	if !s.facts.HasDepartment {
		return append([]string(nil), s.facts.Departments...)
	}
	return distinctSorted(s, func(r *Record) string { return r.Department })
}

// Domain is the full value range of each filter dimension. Filter widgets
// default to it.
type Domain struct {
	Terms       []string `json:"terms"`
	Years       []int    `json:"years"`
	MinYear     int      `json:"minYear"`
	MaxYear     int      `json:"maxYear"`
	Departments []string `json:"departments"`
}

// Domain scans the store once and reports its filter domain.
func (s *Store) Domain() Domain {
	d := Domain{
		Terms: distinctSorted(s, func(r *Record) string { return r.Term }),
	}
	seen := make(map[int]bool)
	for i := range s.records {
		y := s.records[i].Year
		if !seen[y] {
			seen[y] = true
			d.Years = append(d.Years, y)
		}
	}
	sort.Ints(d.Years)
	if len(d.Years) > 0 {
		d.MinYear, d.MaxYear = d.Years[0], d.Years[len(d.Years)-1]
	}
	d.Departments = s.Departments()
	sort.Strings(d.Departments)
	return d
}

// FilterSpec returns a spec selecting the whole domain explicitly, the way
// a freshly opened dashboard presets its widgets.
func (d Domain) FilterSpec() FilterSpec {
	spec := FilterSpec{
		Terms:       append([]string(nil), d.Terms...),
		Departments: append([]string(nil), d.Departments...),
	}
	if len(d.Years) > 0 {
		spec.Years = YearRange(d.MinYear, d.MaxYear)
	}
	return spec
}

// distinctSorted returns the distinct non-empty keys, case-folded the way
// Apply matches them, keeping the first spelling seen.
func distinctSorted(v View, key func(*Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < v.Len(); i++ {
		k := key(v.At(i))
		if k != "" && !seen[strings.ToLower(k)] {
			seen[strings.ToLower(k)] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// ============================================================================
// FILTERED VIEW — filtered subset (zero-copy)
// ============================================================================

// FilteredView is the subsequence of a store's records that satisfied a
// FilterSpec, in store order. It holds indices only and is never mutated.
type FilteredView struct {
	store   *Store
	indices []int
	spec    FilterSpec
}

func newFilteredView(store *Store, indices []int, spec FilterSpec) *FilteredView {
	return &FilteredView{store: store, indices: indices, spec: spec}
}

func (v *FilteredView) Len() int         { return len(v.indices) }
func (v *FilteredView) At(i int) *Record { return v.store.At(v.indices[i]) }
func (v *FilteredView) Index(i int) int  { return v.indices[i] }
func (v *FilteredView) Store() *Store    { return v.store }

// Spec returns the filter that produced the view.
func (v *FilteredView) Spec() FilterSpec { return v.spec }

// Indices returns a copy of the store positions in the view.
func (v *FilteredView) Indices() []int {
	return append([]int(nil), v.indices...)
}

// Records copies the view's records out, in order.
func Records(v View) []Record {
	out := make([]Record, v.Len())
	for i := range out {
		out[i] = *v.At(i)
	}
	return out
}
