package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// ENGINE TYPES — Admissions records, metrics and render-ready output
// ============================================================================
// Record holds one canonical row. Everything downstream (filters, grouping,
// builders) reads records through View and never mutates them.
// ============================================================================

// ============================================================================
// RECORD
// ============================================================================

// Record is one row of the admissions table after header normalization.
//
// RetentionRate and SatisfactionScore are NaN when the source cell was blank.
// DeptEnrolled holds the wide "<Department> Enrolled" columns; a department
// absent from the map had no value in this row.
type Record struct {
	Term              string         `json:"term"`
	Year              int            `json:"year"`
	Department        string         `json:"department,omitempty"`
	Applications      int            `json:"applications"`
	Admitted          int            `json:"admitted"`
	Enrolled          int            `json:"enrolled"`
	RetentionRate     float64        `json:"-"`
	SatisfactionScore float64        `json:"-"`
	DeptEnrolled      map[string]int `json:"deptEnrolled,omitempty"`
}

// Missing is the in-record marker for a blank float cell.
var Missing = math.NaN()

// Value returns the numeric value of a metric field and whether it is present.
func (r *Record) Value(field string) (float64, bool) {
	switch schema.Field(field) {
	case schema.FieldApplications:
		return float64(r.Applications), true
	case schema.FieldAdmitted:
		return float64(r.Admitted), true
	case schema.FieldEnrolled:
		return float64(r.Enrolled), true
	case schema.FieldRetentionRate:
		return r.RetentionRate, !math.IsNaN(r.RetentionRate)
	case schema.FieldSatisfactionScore:
		return r.SatisfactionScore, !math.IsNaN(r.SatisfactionScore)
	}
	return 0, false
}

// Dimension returns the group key of a record for a dimension name.
func (r *Record) Dimension(dim string) string {
	switch schema.Field(dim) {
	case schema.FieldTerm:
		return r.Term
	case schema.FieldYear:
		return strconv.Itoa(r.Year)
	case schema.FieldDepartment:
		return r.Department
	}
	return ""
}

// MarshalJSON writes missing rates as null.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		RetentionRate     Value `json:"retentionRate"`
		SatisfactionScore Value `json:"satisfactionScore"`
	}{
		plain:             plain(r),
		RetentionRate:     valueOf(r.RetentionRate),
		SatisfactionScore: valueOf(r.SatisfactionScore),
	})
}

// Dimensions that a Summary can be grouped by.
var Dimensions = []string{
	string(schema.FieldTerm),
	string(schema.FieldYear),
	string(schema.FieldDepartment),
}

// MetricFields are the fields that can be aggregated.
var MetricFields = []string{
	string(schema.FieldApplications),
	string(schema.FieldAdmitted),
	string(schema.FieldEnrolled),
	string(schema.FieldRetentionRate),
	string(schema.FieldSatisfactionScore),
}

// ============================================================================
// METRIC — (field, op) pair requested from the aggregation engine
// ============================================================================

// Op is an aggregation operator.
type Op string

const (
	OpSum  Op = "sum"
	OpMean Op = "mean"
)

// Metric names one aggregate column of a Summary.
type Metric struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
}

// String renders the metric as "field:op".
func (m Metric) String() string {
	return m.Field + ":" + string(m.Op)
}

// Sum and Mean are shorthands for building metric lists.
func Sum(field string) Metric  { return Metric{Field: field, Op: OpSum} }
func Mean(field string) Metric { return Metric{Field: field, Op: OpMean} }

// ============================================================================
// SUMMARY — Grouped aggregation result
// ============================================================================

// Summary is the output of Aggregate. Rows are ordered ascending by each
// group-by dimension in turn.
type Summary struct {
	GroupBy []string     `json:"groupBy"`
	Metrics []Metric     `json:"metrics"`
	Melted  bool         `json:"melted,omitempty"`
	Rows    []SummaryRow `json:"rows"`
}

// SummaryRow is one group: its key parts, how many rows contributed and one
// value per metric.
type SummaryRow struct {
	Keys   []string `json:"keys"`
	Count  int      `json:"count"`
	Values []Value  `json:"values"`
}

// Lookup returns the row whose keys equal keys, or nil.
func (s *Summary) Lookup(keys ...string) *SummaryRow {
	for i := range s.Rows {
		if equalKeys(s.Rows[i].Keys, keys) {
			return &s.Rows[i]
		}
	}
	return nil
}

// MetricIndex returns the position of m in s.Metrics, or -1.
func (s *Summary) MetricIndex(m Metric) int {
	for i, sm := range s.Metrics {
		if sm == m {
			return i
		}
	}
	return -1
}

// TotalCount sums Count across rows.
func (s *Summary) TotalCount() int {
	n := 0
	for _, r := range s.Rows {
		n += r.Count
	}
	return n
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Value is an aggregate that is either a number or "no data".
type Value struct {
	Number float64
	Valid  bool
}

// NoData is the sentinel for an aggregate with no contributing values.
var NoData = Value{}

// Num wraps a number as a valid Value.
func Num(f float64) Value { return Value{Number: f, Valid: true} }

func valueOf(f float64) Value {
	if math.IsNaN(f) {
		return NoData
	}
	return Num(f)
}

// String formats the value for tables; no data renders as "n/a".
func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(RoundTo2(v.Number), 'f', -1, 64)
}

// MarshalJSON writes no data as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON reads null as no data.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NoData
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	*v = Num(f)
	return nil
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string       `json:"title"`
	Columns []Column     `json:"columns"`
	Rows    [][]string   `json:"rows"`
	Footer  *TableFooter `json:"footer,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// TableFooter provides totals for a table, keyed by column key.
type TableFooter struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
