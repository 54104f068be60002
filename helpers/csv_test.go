package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/schema"
)

const dashboardCSV = `Term,Year,Applications,Admitted,Enrolled,Retention Rate (%),Student Satisfaction (%),Engineering Enrolled,Business Enrolled,Arts Enrolled,Science Enrolled
Spring,2019,1000,400,200,90,80,50,50,50,50
Fall,2019,1200,500,300,88,82,90,70,60,80
Spring,2020,1100,450,250,91,,70,60,60,60
Fall,2020,"1,300",550,320,,,100,80,,80
`

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV([]byte(dashboardCSV), schema.DefaultConfig())
	require.NoError(t, err)

	store := ds.Store
	require.Equal(t, 4, store.Len())
	assert.False(t, store.HasDepartment())
	assert.Equal(t, []string{"Engineering", "Business", "Arts", "Science"}, store.Departments())
	assert.Empty(t, ds.Skipped)

	r := store.At(3)
	assert.Equal(t, "Fall", r.Term)
	assert.Equal(t, 2020, r.Year)
	assert.Equal(t, 1300, r.Applications)
	_, ok := r.Value("retention_rate")
	assert.False(t, ok, "blank rate is missing")
	_, hasArts := r.DeptEnrolled["Arts"]
	assert.False(t, hasArts, "blank department cell is absent")
	assert.Equal(t, 100, r.DeptEnrolled["Engineering"])
}

func TestLoadCSVEndToEnd(t *testing.T) {
	ds, err := LoadCSV([]byte(dashboardCSV), schema.DefaultConfig())
	require.NoError(t, err)

	view, err := engine.Apply(ds.Store, engine.FilterSpec{Years: engine.YearRange(2019, 2019)})
	require.NoError(t, err)

	s, err := engine.Aggregate(view, []string{"department"}, []engine.Metric{engine.Sum("enrolled")})
	require.NoError(t, err)
	assert.True(t, s.Melted)
	assert.Equal(t, engine.Num(140), s.Lookup("Engineering").Values[0])
}

func TestLoadCSVSkipsBadRows(t *testing.T) {
	data := `term,year,applications,admitted,enrolled,retention rate
Fall,2019,10,5,4,80
Fall,twenty,10,5,4,80
Fall,2020,,5,4,80
Fall,2021,10,5.5,4,80
Fall,2022,10,5,4,eighty

Spring,2022,10,5,4,70%
`
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ds, err := LoadCSV([]byte(data), schema.DefaultConfig(), WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Store.Len())
	require.Len(t, ds.Skipped, 3)
	assert.Equal(t, 3, ds.Skipped[0].Line)
	assert.Contains(t, ds.Skipped[0].Reason, "year")
	assert.Equal(t, 4, ds.Skipped[1].Line)
	assert.Contains(t, ds.Skipped[1].Reason, "applications")
	assert.Contains(t, ds.Skipped[2].Reason, "admitted")
	assert.Contains(t, buf.String(), "row skipped")

	_, ok := ds.Store.At(1).Value("retention_rate")
	assert.False(t, ok, "unparsable rate is missing, row kept")
	v, _ := ds.Store.At(2).Value("retention_rate")
	assert.Equal(t, 70.0, v)
}

func TestLoadCSVSchemaError(t *testing.T) {
	_, err := LoadCSV([]byte("Term,Year,Applications\nFall,2020,1\n"), schema.DefaultConfig())
	var se *schema.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.FieldAdmitted, se.Field)
}

func TestLoadCSVHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty input", "", "empty input"},
		{"empty header", "term,,year\n", "empty string"},
		{"duplicate header", "term,year,term\n", "appeared at both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV([]byte(tt.data), schema.DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCSVWithDepartmentColumn(t *testing.T) {
	data := "Semester,Academic Year,Dept,Apps,Admits,Enrollment\nFall,2020,Arts,10,5,4\nFall,2020,Law,20,10,8\n"
	ds, err := LoadCSV([]byte(data), schema.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, ds.Store.HasDepartment())
	assert.Equal(t, []string{"Arts", "Law"}, ds.Store.Departments())
}

func TestReadTableBOM(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("\ufeffTerm,Year\nFall,2020\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Term", "Year"}, tbl.Headers)
	assert.Len(t, tbl.Rows, 1)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{"1,200", 1200, false},
		{"1200.0", 1200, false},
		{"", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
		{"Inf", 0, true},
		{"1e20", 0, true},
		{"-1e20", 0, true},
		{"1e6", 1000000, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
