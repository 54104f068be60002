package engine

import (
	"math"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a Summary
// ============================================================================
// One row per group: dimension keys, row count, then one column per metric.
// The footer totals count and sum metrics; means are not totalled.
// ============================================================================

// BuildTable turns a Summary into render-ready rows.
func BuildTable(s *Summary, title string) *TableData {
	columns := make([]Column, 0, len(s.GroupBy)+1+len(s.Metrics))
	for _, dim := range s.GroupBy {
		columns = append(columns, Column{
			Key:   dim,
			Label: LabelForDimension(dim),
			Type:  "text",
			Align: "left",
		})
	}
	columns = append(columns, Column{Key: "count", Label: "Rows", Type: "number", Align: "center"})
	for _, m := range s.Metrics {
		columns = append(columns, Column{
			Key:   m.String(),
			Label: LabelForMetric(m),
			Type:  "number",
			Align: "right",
		})
	}

	rows := make([][]string, 0, len(s.Rows))
	totals := make([]float64, len(s.Metrics))
	for _, r := range s.Rows {
		row := make([]string, 0, len(columns))
		row = append(row, r.Keys...)
		row = append(row, FormatInt(r.Count))
		for i, m := range s.Metrics {
			row = append(row, FormatValue(m, r.Values[i]))
			if r.Values[i].Valid {
				totals[i] += r.Values[i].Number
			}
		}
		rows = append(rows, row)
	}

	table := &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
	}
	if len(s.Rows) == 0 {
		return table
	}

	footer := &TableFooter{
		Label:  "Total",
		Values: map[string]string{"count": FormatInt(s.TotalCount())},
	}
	for i, m := range s.Metrics {
		if m.Op == OpSum {
			footer.Values[m.String()] = FormatValue(m, Num(totals[i]))
		}
	}
	table.Footer = footer
	return table
}

// FormatCell renders a summary value the way BuildTable does, without
// thousands separators, for machine-readable output such as CSV.
func FormatCell(m Metric, v Value) string {
	if !v.Valid {
		return ""
	}
	if m.Op == OpSum && isCountField(m.Field) {
		return strconv.Itoa(int(math.Round(v.Number)))
	}
	return v.String()
}
