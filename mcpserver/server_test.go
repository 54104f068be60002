package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/helpers"
	"github.com/spektr-org/admissions/schema"
)

const testCSV = `Term,Year,Applications,Admitted,Enrolled,Retention Rate (%),Student Satisfaction (%),Engineering Enrolled,Business Enrolled
Spring,2019,1000,400,200,90,80,120,80
Fall,2019,1200,500,300,88,82,140,160
Spring,2020,1100,450,250,91,,150,100
Fall,2020,1300,550,320,,,170,150
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ds, err := helpers.LoadCSV([]byte(testCSV), schema.DefaultConfig())
	require.NoError(t, err)
	return New(Deps{Dataset: ds, Version: "test"})
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestDescribeDataset(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleDescribe(context.Background(), call("describe_dataset", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out struct {
		Records int           `json:"records"`
		Domain  engine.Domain `json:"domain"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 4, out.Records)
	assert.Equal(t, 2019, out.Domain.MinYear)
	assert.Equal(t, 2020, out.Domain.MaxYear)
	assert.Equal(t, []string{"Business", "Engineering"}, out.Domain.Departments)
}

func TestSummarizeFlatArgs(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSummarize(context.Background(), call("summarize", map[string]any{
		"terms":   "fall",
		"groupBy": "Year",
		"metrics": "applications:sum,retention_rate:mean",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out SummarizeResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 2, out.Records)
	require.Len(t, out.Summary.Rows, 2)
	assert.Equal(t, []string{"2019"}, out.Summary.Rows[0].Keys)
	assert.Equal(t, engine.Num(1200), out.Summary.Rows[0].Values[0])
	assert.Equal(t, engine.Num(88), out.Summary.Rows[0].Values[1])
	assert.Equal(t, engine.NoData, out.Summary.Rows[1].Values[1])
}

func TestSummarizeRequestJSON(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSummarize(context.Background(), call("summarize", map[string]any{
		"request": `{"filter":{"years":{"range":[2020,2020]}},"groupBy":["department"],"metrics":["enrolled"]}`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out SummarizeResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.Summary.Melted)
	require.Len(t, out.Summary.Rows, 2)
	assert.Equal(t, []string{"Business"}, out.Summary.Rows[0].Keys)
	assert.Equal(t, engine.Num(250), out.Summary.Rows[0].Values[0])
	assert.Equal(t, engine.Num(320), out.Summary.Rows[1].Values[0])
}

func TestSummarizeErrorsAreToolErrors(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]map[string]any{
		"bad metric":   {"groupBy": "year", "metrics": "applications:median"},
		"bad range":    {"years": "2022-2019", "groupBy": "year", "metrics": "enrolled"},
		"bad years":    {"years": "soon", "groupBy": "year", "metrics": "enrolled"},
		"bad request":  {"request": "{"},
		"bad groupBy":  {"groupBy": "campus", "metrics": "enrolled"},
		"melt refused": {"groupBy": "department", "metrics": "applications"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := s.handleSummarize(context.Background(), call("summarize", args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleDashboard(context.Background(), call("dashboard", map[string]any{
		"terms": "Spring",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out engine.DashboardResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 2, out.Records)
	assert.Equal(t, 2100, out.KPIs.Applications)
	assert.Len(t, out.Panels, len(engine.DefaultPanels()))
	for _, p := range out.Panels {
		assert.Empty(t, p.Err, p.Panel.Name)
	}
}

func TestReload(t *testing.T) {
	s := newTestServer(t)
	ds, err := helpers.LoadCSV([]byte("Term,Year,Applications,Admitted,Enrolled\nFall,2024,10,5,2\n"), schema.DefaultConfig())
	require.NoError(t, err)
	s.Reload(ds)

	res, err := s.handleDashboard(context.Background(), call("dashboard", nil))
	require.NoError(t, err)
	var out engine.DashboardResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 1, out.Records)

	var names []string
	for _, p := range out.Panels {
		if p.Err != "" {
			names = append(names, p.Panel.Name)
		}
	}
	assert.Equal(t, []string{"enrollment_by_department"}, names)
}

func TestNoDataset(t *testing.T) {
	s := New(Deps{})
	res, err := s.handleDescribe(context.Background(), call("describe_dataset", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
