package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// PROFILING — Heuristic inspection of raw column values
// ============================================================================
// Normalize only looks at headers. Profile looks at the values underneath
// them so the CLI can show what each column holds and flag mapped numeric
// fields whose cells will not parse.
//
// Per column:
//   1. Collect non-null values → unique set, samples
//   2. Detect type (numeric, date, bool, string) at an 80% threshold
//   3. Numeric ratio for fields that must parse as numbers
// ============================================================================

// ColumnType is the detected value type of a column.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumeric ColumnType = "numeric"
	TypeDate    ColumnType = "date"
	TypeBool    ColumnType = "bool"
)

// ProfileOptions controls profiling.
type ProfileOptions struct {
	SampleSize int // Max rows to inspect (0 = all)
	MaxSamples int // Sample values kept per column
}

// DefaultProfileOptions returns sensible defaults.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		SampleSize: 1000,
		MaxSamples: 5,
	}
}

// ColumnProfile describes the values of one raw column.
type ColumnProfile struct {
	Column
	Type         ColumnType `json:"type"`
	NullCount    int        `json:"nullCount"`
	UniqueCount  int        `json:"uniqueCount"`
	NumericRatio float64    `json:"numericRatio"`
	Samples      []string   `json:"samples"`
	Cardinality  string     `json:"cardinality"` // "low", "medium", "high"
	Warning      string     `json:"warning,omitempty"`
}

// TableProfile is the result of profiling a raw table.
type TableProfile struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// Warnings returns the columns that carry a warning.
func (p *TableProfile) Warnings() []ColumnProfile {
	var out []ColumnProfile
	for _, c := range p.Columns {
		if c.Warning != "" {
			out = append(out, c)
		}
	}
	return out
}

// Profile inspects the rows of a raw table against its header mapping.
func Profile(rows [][]string, m *Mapping, opts ...ProfileOptions) *TableProfile {
	opt := DefaultProfileOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.SampleSize > 0 && len(rows) > opt.SampleSize {
		rows = rows[:opt.SampleSize]
	}

	p := &TableProfile{
		Rows:    len(rows),
		Columns: make([]ColumnProfile, len(m.Columns)),
	}
	for i, col := range m.Columns {
		p.Columns[i] = profileColumn(col, rows, opt.MaxSamples)
	}
	return p
}

func profileColumn(col Column, rows [][]string, maxSamples int) ColumnProfile {
	cp := ColumnProfile{Column: col}

	values := make([]string, 0, len(rows))
	unique := make(map[string]bool)
	for _, row := range rows {
		if col.Index >= len(row) {
			cp.NullCount++
			continue
		}
		val := strings.TrimSpace(row[col.Index])
		if isNull(val) {
			cp.NullCount++
			continue
		}
		values = append(values, val)
		unique[val] = true
	}

	cp.UniqueCount = len(unique)
	cp.Samples = collectSamples(unique, maxSamples)
	cp.Type = detectType(values)

	switch {
	case cp.UniqueCount <= 10:
		cp.Cardinality = "low"
	case cp.UniqueCount <= 100:
		cp.Cardinality = "medium"
	default:
		cp.Cardinality = "high"
	}

	if len(values) > 0 {
		numeric := 0
		for _, v := range values {
			if isNumeric(v) {
				numeric++
			}
		}
		cp.NumericRatio = float64(numeric) / float64(len(values))
	}

	if col.Mapped && expectsNumber(col.Field) && len(values) > 0 && cp.NumericRatio < 1 {
		bad := len(values) - int(cp.NumericRatio*float64(len(values))+0.5)
		cp.Warning = fmt.Sprintf("%d non-numeric value(s) in %s column; those rows will be skipped or treated as missing", bad, col.Field)
	}
	if col.Mapped && len(values) == 0 && len(rows) > 0 {
		cp.Warning = "all values are empty"
	}
	return cp
}

func expectsNumber(f Field) bool {
	switch f {
	case FieldYear, FieldApplications, FieldAdmitted, FieldEnrolled,
		FieldRetentionRate, FieldSatisfactionScore, FieldDeptEnrolled:
		return true
	}
	return false
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to match for numeric/date/bool.
// Bare four-digit years read as numeric, not date.
func detectType(values []string) ColumnType {
	if len(values) == 0 {
		return TypeString
	}

	numCount, dateCount, boolCount := 0, 0, 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		} else if isDate(v) {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	switch {
	case boolCount >= threshold:
		return TypeBool
	case numCount >= threshold:
		return TypeNumeric
	case dateCount >= threshold:
		return TypeDate
	}
	return TypeString
}

func isNull(s string) bool {
	switch s {
	case "", "null", "NULL", "N/A", "n/a", "NaN", "nan":
		return true
	}
	return false
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan-2006",
	"January 2006",
}

func isDate(s string) bool {
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// collectSamples returns up to limit values in sorted order.
func collectSamples(unique map[string]bool, limit int) []string {
	samples := make([]string, 0, len(unique))
	for v := range unique {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	return samples
}
