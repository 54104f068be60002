package helpers

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// CSV HELPER — Parses tabular data into an engine.Store
// ============================================================================
// Consumer reads the bytes from wherever they live (file, URL, SQLite).
// This helper normalizes the headers and converts each row into a Record.
//
// A row whose year or count cells do not parse is skipped and logged. Only
// header-level problems fail the load.
// ============================================================================

// Table is a raw header + rows pair before normalization.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RowError describes a skipped row. Line is 1-based and counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Dataset is the result of loading one table.
type Dataset struct {
	Source  string          `json:"source"`
	Store   *engine.Store   `json:"-"`
	Mapping *schema.Mapping `json:"mapping"`
	Table   *Table          `json:"-"`
	Skipped []RowError      `json:"skipped,omitempty"`
}

// ReadTable reads CSV from r. Rows may have fewer or more cells than the
// header.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("reading header: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	if err := validateHeader(headers); err != nil {
		return nil, err
	}

	t := &Table{Headers: headers}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading row %d", len(t.Rows)+1)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// validateHeader rejects empty and repeated header names.
func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

// ReadCSV reads, normalizes and converts CSV from r.
func ReadCSV(r io.Reader, cfg schema.Config, opts ...Option) (*Dataset, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return Build(t, cfg, opts...)
}

// LoadCSV is ReadCSV over an in-memory buffer.
func LoadCSV(data []byte, cfg schema.Config, opts ...Option) (*Dataset, error) {
	return ReadCSV(bytes.NewReader(data), cfg, opts...)
}

// Build normalizes the table's headers and converts its rows to records.
func Build(t *Table, cfg schema.Config, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)

	mapping, err := schema.Normalize(t.Headers, cfg)
	if err != nil {
		return nil, err
	}
	for _, c := range mapping.Unmapped() {
		o.logger.Debug("column ignored", "column", c.Raw, "reason", c.Reason)
	}

	conv := newConverter(mapping)
	ds := &Dataset{Mapping: mapping, Table: t}
	records := make([]engine.Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}
		rec, err := conv.convert(row)
		if err != nil {
			re := RowError{Line: i + 2, Reason: err.Error()}
			ds.Skipped = append(ds.Skipped, re)
			o.logger.Warn("row skipped", "line", re.Line, "reason", re.Reason)
			continue
		}
		records = append(records, rec)
	}

	ds.Store = engine.NewStore(records, engine.Facts{
		HasDepartment: mapping.Has(schema.FieldDepartment),
		Departments:   mapping.Departments(),
	})
	o.logger.Debug("dataset built", "rows", len(t.Rows), "records", len(records), "skipped", len(ds.Skipped))
	return ds, nil
}

// ============================================================================
// ROW CONVERSION
// ============================================================================

// converter holds the column index of each scalar field, -1 when absent.
type converter struct {
	term         int
	year         int
	dept         int
	apps         int
	admitted     int
	enrolled     int
	retention    int
	satisfaction int
	depts        []schema.Column
}

func newConverter(m *schema.Mapping) *converter {
	idx := func(f schema.Field) int {
		if i, ok := m.Index(f); ok {
			return i
		}
		return -1
	}
	return &converter{
		term:         idx(schema.FieldTerm),
		year:         idx(schema.FieldYear),
		dept:         idx(schema.FieldDepartment),
		apps:         idx(schema.FieldApplications),
		admitted:     idx(schema.FieldAdmitted),
		enrolled:     idx(schema.FieldEnrolled),
		retention:    idx(schema.FieldRetentionRate),
		satisfaction: idx(schema.FieldSatisfactionScore),
		depts:        m.DeptColumns(),
	}
}

func (c *converter) convert(row []string) (engine.Record, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec engine.Record
	var err error
	rec.Term = cell(c.term)
	rec.Department = cell(c.dept)

	if rec.Year, err = parseCount(cell(c.year)); err != nil {
		return rec, errors.Wrap(err, "year")
	}
	if rec.Applications, err = parseCount(cell(c.apps)); err != nil {
		return rec, errors.Wrap(err, "applications")
	}
	if rec.Admitted, err = parseCount(cell(c.admitted)); err != nil {
		return rec, errors.Wrap(err, "admitted")
	}
	if rec.Enrolled, err = parseCount(cell(c.enrolled)); err != nil {
		return rec, errors.Wrap(err, "enrolled")
	}

	rec.RetentionRate = parseRate(cell(c.retention))
	rec.SatisfactionScore = parseRate(cell(c.satisfaction))

	if len(c.depts) > 0 {
		rec.DeptEnrolled = make(map[string]int, len(c.depts))
		for _, d := range c.depts {
			if n, err := parseCount(cell(d.Index)); err == nil {
				rec.DeptEnrolled[d.Department] = n
			}
		}
	}
	return rec, nil
}

// parseCount accepts "1200", "1,200" and integral floats such as "1200.0".
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.Errorf("%q is not a whole number", s)
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, errors.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

// parseRate returns NaN for blank or unparsable cells. A trailing % is
// ignored.
func parseRate(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return engine.Missing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return engine.Missing
	}
	return f
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
