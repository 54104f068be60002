package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Data ────────────────────────────────────────────────────────────

var dashboardHeaders = []string{
	"Term", "Year", "Applications", "Admitted", "Enrolled",
	"Retention Rate (%)", "Student Satisfaction (%)",
	"Engineering Enrolled", "Business Enrolled", "Arts Enrolled", "Science Enrolled",
}

// ============================================================================
// 1. CANONICAL RESOLUTION
// ============================================================================

func TestNormalizeDashboardHeaders(t *testing.T) {
	m, err := Normalize(dashboardHeaders, DefaultConfig())
	require.NoError(t, err)

	for _, f := range []Field{FieldTerm, FieldYear, FieldApplications, FieldAdmitted,
		FieldEnrolled, FieldRetentionRate, FieldSatisfactionScore} {
		assert.True(t, m.Has(f), "%s should resolve", f)
	}
	assert.False(t, m.Has(FieldDepartment))

	idx, ok := m.Index(FieldRetentionRate)
	require.True(t, ok)
	assert.Equal(t, 5, idx)

	assert.Equal(t, []string{"Engineering", "Business", "Arts", "Science"}, m.Departments())
	assert.Empty(t, m.Unmapped())
}

func TestNormalizeKeyVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Field
	}{
		{"upper", "TERM", FieldTerm},
		{"padded", "  year  ", FieldYear},
		{"snake", "retention_rate", FieldRetentionRate},
		{"kebab", "satisfaction-score", FieldSatisfactionScore},
		{"alias", "Semester", FieldTerm},
		{"double space", "Total   Enrollments", FieldEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := []string{tt.header, "x1", "x2", "x3", "x4"}
			m, _ := Normalize(headers, DefaultConfig())
			require.True(t, m.Columns[0].Mapped)
			assert.Equal(t, tt.want, m.Columns[0].Field)
		})
	}
}

func TestNormalizeDepartmentColumns(t *testing.T) {
	headers := []string{"term", "year", "applications", "admitted", "enrolled",
		"ENGINEERING ENROLLED", " business_enrolled ", "computer-science enrolled"}
	m, err := Normalize(headers, DefaultConfig())
	require.NoError(t, err)

	cols := m.DeptColumns()
	require.Len(t, cols, 3)
	assert.Equal(t, FieldDeptEnrolled, cols[0].Field)
	assert.Equal(t, "Engineering", cols[0].Department)
	assert.Equal(t, "Business", cols[1].Department)
	assert.Equal(t, "Computer Science", cols[2].Department)
	assert.Equal(t, 6, cols[1].Index)
}

func TestNormalizeEnrolledIsNotADepartment(t *testing.T) {
	headers := []string{"term", "year", "applications", "admitted", "Total Enrolled"}
	m, err := Normalize(headers, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, m.Has(FieldEnrolled))
	assert.Empty(t, m.Departments())
}

// ============================================================================
// 2. DUPLICATES & UNKNOWN HEADERS
// ============================================================================

func TestNormalizeDuplicateHeaders(t *testing.T) {
	headers := []string{"term", "year", "applications", "admitted", "enrolled",
		"Semester", "Arts Enrolled", "arts_enrolled", "Notes"}
	m, err := Normalize(headers, DefaultConfig())
	require.NoError(t, err)

	idx, _ := m.Index(FieldTerm)
	assert.Equal(t, 0, idx, "first header wins")

	unmapped := m.Unmapped()
	require.Len(t, unmapped, 3)
	assert.Equal(t, "Semester", unmapped[0].Raw)
	assert.Equal(t, ReasonDuplicate, unmapped[0].Reason)
	assert.Equal(t, "arts_enrolled", unmapped[1].Raw)
	assert.Equal(t, ReasonDuplicate, unmapped[1].Reason)
	assert.Equal(t, "Notes", unmapped[2].Raw)
	assert.Equal(t, ReasonUnknown, unmapped[2].Reason)

	assert.Equal(t, []string{"Arts"}, m.Departments())
}

// ============================================================================
// 3. SCHEMA ERRORS
// ============================================================================

func TestNormalizeMissingRequired(t *testing.T) {
	m, err := Normalize([]string{"Term", "Applications", "Admitted"}, DefaultConfig())
	require.Error(t, err)
	require.NotNil(t, m, "mapping is returned alongside the error")

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FieldYear, se.Field)
	assert.Equal(t, []Field{FieldYear, FieldEnrolled}, se.Missing)
	assert.Contains(t, err.Error(), `"year"`)
}

func TestNormalizeMissingSingle(t *testing.T) {
	_, err := Normalize([]string{"term", "year", "applications", "admitted"}, DefaultConfig())

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FieldEnrolled, se.Field)
	assert.Equal(t, `schema: required field "enrolled" has no matching column`, err.Error())
}

func TestNormalizeOptionalFieldsMayBeAbsent(t *testing.T) {
	_, err := Normalize([]string{"term", "year", "applications", "admitted", "enrolled"}, DefaultConfig())
	assert.NoError(t, err)
}

// ============================================================================
// 4. CONFIG
// ============================================================================

func TestWithAliases(t *testing.T) {
	base := DefaultConfig()
	cfg := base.WithAliases(map[string][]string{
		"Retention Rate": {"kept (%)"},
		"term":           {"period"},
		"bogus":          {"whatever"},
	})

	assert.Contains(t, cfg.Aliases[FieldRetentionRate], "kept (%)")
	assert.Contains(t, cfg.Aliases[FieldTerm], "period")
	assert.NotContains(t, base.Aliases[FieldTerm], "period", "base config is not mutated")
	_, ok := cfg.Aliases[Field("bogus")]
	assert.False(t, ok)

	m, err := Normalize([]string{"Period", "year", "applications", "admitted", "enrolled", "Kept (%)"}, cfg)
	require.NoError(t, err)
	assert.True(t, m.Has(FieldRetentionRate))
}

func TestCustomDeptSuffix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeptSuffix = "intake"
	m, err := Normalize([]string{"term", "year", "applications", "admitted", "enrolled", "Law Intake"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Law"}, m.Departments())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "business enrolled", NormalizeKey("  Business_Enrolled "))
	assert.Equal(t, "retention rate (%)", NormalizeKey("Retention  Rate (%)"))
	assert.Equal(t, "a b c", NormalizeKey("A-b_C"))
}

func TestFieldIsRequired(t *testing.T) {
	assert.True(t, FieldTerm.IsRequired())
	assert.False(t, FieldDepartment.IsRequired())
	assert.False(t, FieldRetentionRate.IsRequired())
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"computer science", "Computer Science"},
		{"  fine   arts ", "Fine Arts"},
		{"études françaises", "Études Françaises"},
		{"ingeniería", "Ingeniería"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, titleCase(tt.in))
		})
	}
}
