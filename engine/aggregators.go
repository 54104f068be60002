package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// AGGREGATORS — Melt, Grouping, Aggregation, and Sorting via View
// ============================================================================
// Pipeline: validate → (melt) → group + aggregate in one pass → sort.
// Validation runs before any record is read, so a bad request never
// produces a partial Summary.
// ============================================================================

// ErrNoDepartments is wrapped by AggregationSpecError when department
// grouping is requested on a store with neither a department column nor
// per-department enrollment columns.
var ErrNoDepartments = errors.New("no department column or per-department enrollment columns")

// AggregationSpecError reports an invalid group-by or metric request.
type AggregationSpecError struct {
	Reason string
	Err    error
}

func (e *AggregationSpecError) Error() string {
	if e.Err != nil {
		return "aggregate: " + e.Reason + ": " + e.Err.Error()
	}
	return "aggregate: " + e.Reason
}

func (e *AggregationSpecError) Unwrap() error { return e.Err }

func specErrorf(format string, args ...any) error {
	return &AggregationSpecError{Reason: fmt.Sprintf(format, args...)}
}

// Aggregate groups view by the ordered groupBy dimensions and computes every
// metric per group. An empty groupBy yields a single overall group, or no
// groups for an empty view.
//
// Grouping by department on a store without a department column melts the
// wide per-department enrollment columns first; only enrolled can be
// aggregated in that mode.
func Aggregate(view View, groupBy []string, metrics []Metric) (*Summary, error) {
	if err := validateGroupBy(groupBy); err != nil {
		return nil, err
	}
	if err := validateMetrics(metrics); err != nil {
		return nil, err
	}

	src := view
	melted := false
	if contains(groupBy, string(schema.FieldDepartment)) && !view.Store().HasDepartment() {
		for _, m := range metrics {
			if m.Field != string(schema.FieldEnrolled) {
				return nil, specErrorf("%s has no per-department value; only %s can be grouped by department here",
					m.Field, schema.FieldEnrolled)
			}
		}
		long, err := Melt(view)
		if err != nil {
			return nil, err
		}
		src, melted = long, true
	}

	summary := &Summary{
		GroupBy: append([]string{}, groupBy...),
		Metrics: append([]Metric{}, metrics...),
		Melted:  melted,
		Rows:    []SummaryRow{},
	}
	if src.Len() == 0 {
		return summary, nil
	}

	groups := groupAndAccumulate(src, groupBy, metrics)
	sortGroups(groups, groupBy)

	summary.Rows = make([]SummaryRow, len(groups))
	for i, g := range groups {
		summary.Rows[i] = g.row(metrics)
	}
	return summary, nil
}

// ============================================================================
// VALIDATION
// ============================================================================

func validateGroupBy(groupBy []string) error {
	seen := make(map[string]bool, len(groupBy))
	for _, d := range groupBy {
		if !contains(Dimensions, d) {
			return specErrorf("unknown dimension %q (expected one of %s)", d, strings.Join(Dimensions, ", "))
		}
		if seen[d] {
			return specErrorf("dimension %q listed twice", d)
		}
		seen[d] = true
	}
	return nil
}

func validateMetrics(metrics []Metric) error {
	for _, m := range metrics {
		if !contains(MetricFields, m.Field) {
			return specErrorf("unknown field %q (expected one of %s)", m.Field, strings.Join(MetricFields, ", "))
		}
		switch m.Op {
		case OpSum, OpMean:
		default:
			return specErrorf("unknown op %q for %s (expected sum or mean)", m.Op, m.Field)
		}
	}
	return nil
}

// ============================================================================
// MELT — wide per-department columns → long (department, enrolled) rows
// ============================================================================

// Melt unpivots the per-department enrollment columns of view into a new
// store with one record per (source record, department). Each long record
// carries the source term and year, the department name and that
// department's enrollment. Departments with no value in a row produce no
// long record. Other metric fields of long records are zero or missing.
func Melt(view View) (*Store, error) {
	depts := view.Store().Departments()
	if len(depts) == 0 {
		return nil, &AggregationSpecError{Reason: "cannot group by department", Err: ErrNoDepartments}
	}

	long := make([]Record, 0, view.Len()*len(depts))
	for i := 0; i < view.Len(); i++ {
		r := view.At(i)
		for _, d := range depts {
			n, ok := r.DeptEnrolled[d]
			if !ok {
				continue
			}
			long = append(long, Record{
				Term:              r.Term,
				Year:              r.Year,
				Department:        d,
				Enrolled:          n,
				RetentionRate:     Missing,
				SatisfactionScore: Missing,
			})
		}
	}
	return NewStore(long, Facts{HasDepartment: true}), nil
}

// ============================================================================
// GROUPING + ACCUMULATION (single pass)
// ============================================================================

// Groups are keyed case-insensitively, matching how Apply compares terms and
// departments; a group shows the first spelling seen.
type group struct {
	keys  []string
	year  int
	count int
	sums  []float64
	ns    []int
}

func groupAndAccumulate(view View, groupBy []string, metrics []Metric) []*group {
	index := make(map[string]*group)
	var order []*group

	keys := make([]string, len(groupBy))
	for i := 0; i < view.Len(); i++ {
		r := view.At(i)
		for d, dim := range groupBy {
			keys[d] = r.Dimension(dim)
		}
		id := strings.ToLower(strings.Join(keys, "\x1f"))

		g, ok := index[id]
		if !ok {
			g = &group{
				keys: append([]string{}, keys...),
				year: r.Year,
				sums: make([]float64, len(metrics)),
				ns:   make([]int, len(metrics)),
			}
			index[id] = g
			order = append(order, g)
		}

		g.count++
		for m, metric := range metrics {
			if v, ok := r.Value(metric.Field); ok {
				g.sums[m] += v
				g.ns[m]++
			}
		}
	}
	return order
}

func (g *group) row(metrics []Metric) SummaryRow {
	values := make([]Value, len(metrics))
	for m, metric := range metrics {
		switch metric.Op {
		case OpSum:
			values[m] = Num(g.sums[m])
		case OpMean:
			if g.ns[m] == 0 {
				values[m] = NoData
			} else {
				values[m] = Num(g.sums[m] / float64(g.ns[m]))
			}
		}
	}
	return SummaryRow{Keys: g.keys, Count: g.count, Values: values}
}

// ============================================================================
// SORTING
// ============================================================================

// sortGroups orders groups ascending by each dimension in turn: year
// numerically, term and department lexicographically.
func sortGroups(groups []*group, groupBy []string) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		for d, dim := range groupBy {
			if dim == string(schema.FieldYear) {
				if a.year != b.year {
					return a.year < b.year
				}
				continue
			}
			if a.keys[d] != b.keys[d] {
				return a.keys[d] < b.keys[d]
			}
		}
		return false
	})
}

// CompareKeys orders two key values of a dimension the way Summary rows are
// ordered.
func CompareKeys(dim, a, b string) int {
	if dim == string(schema.FieldYear) {
		ya, errA := strconv.Atoi(a)
		yb, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			switch {
			case ya < yb:
				return -1
			case ya > yb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a, b)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatValue renders an aggregate for display: sums of count fields as
// grouped integers, everything else with two decimals, no data as "n/a".
func FormatValue(m Metric, v Value) string {
	if !v.Valid {
		return "n/a"
	}
	if m.Op == OpSum && isCountField(m.Field) {
		return FormatInt(int(math.Round(v.Number)))
	}
	return fmt.Sprintf("%.2f", v.Number)
}

func isCountField(field string) bool {
	switch schema.Field(field) {
	case schema.FieldApplications, schema.FieldAdmitted, schema.FieldEnrolled:
		return true
	}
	return false
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForDimension returns a human label for a dimension or field name:
// "retention_rate" → "Retention Rate".
func LabelForDimension(dimension string) string {
	words := strings.Fields(strings.ReplaceAll(dimension, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LabelForMetric returns a human label for a metric: "Applications (sum)".
func LabelForMetric(m Metric) string {
	return fmt.Sprintf("%s (%s)", LabelForDimension(m.Field), m.Op)
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
