package schema

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unmapped reasons reported on Column.Reason.
const (
	ReasonUnknown   = "no known alias"
	ReasonDuplicate = "duplicate of an earlier column"
)

// Column is the resolution of one raw header.
type Column struct {
	Index      int    `json:"index"`
	Raw        string `json:"raw"`
	Field      Field  `json:"field,omitempty"`
	Department string `json:"department,omitempty"` // set when Field == FieldDeptEnrolled
	Mapped     bool   `json:"mapped"`
	Reason     string `json:"reason,omitempty"`
}

// Mapping is the header → canonical field resolution for one table.
type Mapping struct {
	Columns []Column `json:"columns"`

	scalar map[Field]int
	depts  map[string]int
}

// SchemaError reports required fields that no header resolved to.
type SchemaError struct {
	Field   Field   // first missing field in canonical order
	Missing []Field // every missing required field
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 1 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		return fmt.Sprintf("schema: required field %q has no matching column (missing: %s)",
			e.Field, strings.Join(names, ", "))
	}
	return fmt.Sprintf("schema: required field %q has no matching column", e.Field)
}

// Normalize resolves raw headers to canonical fields using cfg's alias table.
// Headers of the form "<name> <DeptSuffix>" that are not aliases of a scalar
// field become per-department enrollment columns. A header resolving to a
// field that is already mapped is left unmapped as a duplicate.
func Normalize(headers []string, cfg Config) (*Mapping, error) {
	lookup := make(map[string]Field)
	for _, f := range CanonicalFields {
		for _, alias := range cfg.Aliases[f] {
			key := NormalizeKey(alias)
			if _, taken := lookup[key]; !taken {
				lookup[key] = f
			}
		}
	}

	suffix := NormalizeKey(cfg.DeptSuffix)
	m := &Mapping{
		Columns: make([]Column, len(headers)),
		scalar:  make(map[Field]int),
		depts:   make(map[string]int),
	}

	for i, raw := range headers {
		col := Column{Index: i, Raw: raw, Reason: ReasonUnknown}
		key := NormalizeKey(raw)

		if f, ok := lookup[key]; ok {
			if _, dup := m.scalar[f]; dup {
				col.Reason = ReasonDuplicate
			} else {
				col.Field, col.Mapped, col.Reason = f, true, ""
				m.scalar[f] = i
			}
		} else if dept, ok := deptFromKey(key, suffix); ok {
			if _, dup := m.depts[dept]; dup {
				col.Reason = ReasonDuplicate
			} else {
				col.Field, col.Department, col.Mapped, col.Reason = FieldDeptEnrolled, dept, true, ""
				m.depts[dept] = i
			}
		}
		m.Columns[i] = col
	}

	var missing []Field
	for _, f := range RequiredFields {
		if _, ok := m.scalar[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return m, &SchemaError{Field: missing[0], Missing: missing}
	}
	return m, nil
}

// Index returns the column index of a scalar canonical field.
func (m *Mapping) Index(f Field) (int, bool) {
	i, ok := m.scalar[f]
	return i, ok
}

// Has reports whether a scalar canonical field resolved.
func (m *Mapping) Has(f Field) bool {
	_, ok := m.scalar[f]
	return ok
}

// DeptColumns returns the per-department enrollment columns in header order.
func (m *Mapping) DeptColumns() []Column {
	var cols []Column
	for _, c := range m.Columns {
		if c.Mapped && c.Field == FieldDeptEnrolled {
			cols = append(cols, c)
		}
	}
	return cols
}

// Departments returns the department names of the wide enrollment columns.
func (m *Mapping) Departments() []string {
	cols := m.DeptColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Department
	}
	return names
}

// Unmapped returns headers that did not resolve.
func (m *Mapping) Unmapped() []Column {
	var cols []Column
	for _, c := range m.Columns {
		if !c.Mapped {
			cols = append(cols, c)
		}
	}
	return cols
}

// NormalizeKey folds a header for comparison: lower case, trimmed, with
// '_' and '-' treated as spaces and runs of whitespace collapsed.
// "  Business_Enrolled " → "business enrolled".
func NormalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func deptFromKey(key, suffix string) (string, bool) {
	if suffix == "" || !strings.HasSuffix(key, " "+suffix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(key, suffix))
	if name == "" {
		return "", false
	}
	return titleCase(name), true
}

// titleCase upper-cases the first letter of each word: "computer science" → "Computer Science".
// A Caser is not safe for concurrent use, so each call builds its own.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
