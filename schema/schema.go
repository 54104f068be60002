package schema

import "strings"

// ============================================================================
// SCHEMA — Canonical vocabulary for admissions datasets
// ============================================================================
// Source files name the same attribute many ways ("Retention Rate (%)",
// "retention_rate", " RETENTION RATE "). Downstream packages only ever see
// the canonical Field names declared here.
// ============================================================================

// Field is a canonical column name.
type Field string

const (
	FieldTerm              Field = "term"
	FieldYear              Field = "year"
	FieldDepartment        Field = "department"
	FieldApplications      Field = "applications"
	FieldAdmitted          Field = "admitted"
	FieldEnrolled          Field = "enrolled"
	FieldRetentionRate     Field = "retention_rate"
	FieldSatisfactionScore Field = "satisfaction_score"

	// FieldDeptEnrolled marks a wide per-department enrollment column.
	// The department itself is carried on Column.Department.
	FieldDeptEnrolled Field = "dept_enrolled"
)

// CanonicalFields lists the scalar fields in canonical order.
var CanonicalFields = []Field{
	FieldTerm,
	FieldYear,
	FieldDepartment,
	FieldApplications,
	FieldAdmitted,
	FieldEnrolled,
	FieldRetentionRate,
	FieldSatisfactionScore,
}

// RequiredFields must resolve to a header or normalization fails.
var RequiredFields = []Field{
	FieldTerm,
	FieldYear,
	FieldApplications,
	FieldAdmitted,
	FieldEnrolled,
}

// IsRequired reports whether f is one of RequiredFields.
func (f Field) IsRequired() bool {
	for _, r := range RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}

// Config drives header normalization.
type Config struct {
	// Aliases maps each canonical field to the header spellings that resolve
	// to it. Matching ignores case, surrounding whitespace and separators.
	Aliases map[Field][]string `json:"aliases" mapstructure:"aliases"`

	// DeptSuffix is the trailing word identifying a wide per-department
	// enrollment column ("Engineering Enrolled").
	DeptSuffix string `json:"deptSuffix" mapstructure:"dept-suffix"`
}

// DefaultConfig returns the alias table covering the naming variants seen
// across dashboard exports.
func DefaultConfig() Config {
	return Config{
		Aliases: map[Field][]string{
			FieldTerm:              {"term", "semester", "academic term", "session"},
			FieldYear:              {"year", "academic year", "yr"},
			FieldDepartment:        {"department", "dept", "faculty"},
			FieldApplications:      {"applications", "apps", "total applications", "applied"},
			FieldAdmitted:          {"admitted", "admissions", "total admissions", "admits"},
			FieldEnrolled:          {"enrolled", "enrollments", "enrollment", "total enrollments", "total enrolled"},
			FieldRetentionRate:     {"retention rate (%)", "retention rate", "retention", "retention rate pct"},
			FieldSatisfactionScore: {"student satisfaction (%)", "satisfaction score", "student satisfaction", "satisfaction", "satisfaction (%)"},
		},
		DeptSuffix: "enrolled",
	}
}

// WithAliases returns a copy of c with extra aliases appended per field.
// Unknown field names are ignored.
func (c Config) WithAliases(extra map[string][]string) Config {
	out := Config{
		Aliases:    make(map[Field][]string, len(c.Aliases)),
		DeptSuffix: c.DeptSuffix,
	}
	for f, names := range c.Aliases {
		out.Aliases[f] = append([]string(nil), names...)
	}
	for name, aliases := range extra {
		f := Field(NormalizeKey(name))
		f = Field(strings.ReplaceAll(string(f), " ", "_"))
		if !isCanonical(f) {
			continue
		}
		out.Aliases[f] = append(out.Aliases[f], aliases...)
	}
	return out
}

func isCanonical(f Field) bool {
	for _, c := range CanonicalFields {
		if c == f {
			return true
		}
	}
	return false
}
