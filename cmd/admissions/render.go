package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// OUTPUT — lipgloss tables, CSV and JSON
// ============================================================================

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4F46E5"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	footerStyle = lipgloss.NewStyle().Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

const columnGap = "  "

func validateFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q (want %s)", format, strings.Join(allowed, ", "))
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// renderTable draws t with aligned columns and an optional footer.
func renderTable(w io.Writer, t *engine.TableData) error {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString(titleStyle.Render(t.Title))
		b.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		b.WriteString(subtleStyle.Render("(no matching records)"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c.Label)
		for _, row := range t.Rows {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
		if t.Footer != nil {
			widths[i] = max(widths[i], lipgloss.Width(footerCell(t, i)))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			var s string
			if i < len(cells) {
				s = cells[i]
			}
			parts[i] = style.Width(widths[i]).Align(alignment(c.Align)).Render(s)
		}
		return strings.Join(parts, columnGap)
	}

	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	b.WriteString(line(labels, headerStyle))
	b.WriteString("\n")
	for _, row := range t.Rows {
		b.WriteString(line(row, lipgloss.NewStyle()))
		b.WriteString("\n")
	}
	if t.Footer != nil {
		footer := make([]string, len(t.Columns))
		for i := range t.Columns {
			footer[i] = footerCell(t, i)
		}
		b.WriteString(line(footer, footerStyle))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// footerCell is the footer label in the first column, the footer value for
// keyed columns, and blank elsewhere.
func footerCell(t *engine.TableData, i int) string {
	if i == 0 {
		return t.Footer.Label
	}
	return t.Footer.Values[t.Columns[i].Key]
}

func alignment(a string) lipgloss.Position {
	switch a {
	case "right":
		return lipgloss.Right
	case "center":
		return lipgloss.Center
	}
	return lipgloss.Left
}

// writeSummaryCSV writes one header row and one row per group, with plain
// numbers.
func writeSummaryCSV(w io.Writer, s *engine.Summary) error {
	cw := csv.NewWriter(w)
	if err := writeSummaryRecords(cw, s); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeSummaryRecords(cw *csv.Writer, s *engine.Summary) error {
	header := append([]string(nil), s.GroupBy...)
	header = append(header, "count")
	for _, m := range s.Metrics {
		header = append(header, m.String())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	for _, r := range s.Rows {
		row := append([]string(nil), r.Keys...)
		row = append(row, strconv.Itoa(r.Count))
		for i, m := range s.Metrics {
			row = append(row, engine.FormatCell(m, r.Values[i]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}
	return nil
}

// ============================================================================
// DASHBOARD
// ============================================================================

func renderKPIs(w io.Writer, k *engine.KPIs) error {
	items := k.Items()
	width := 0
	for _, it := range items {
		width = max(width, lipgloss.Width(it.Label))
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = headerStyle.Width(width).Render(it.Label) + columnGap + it.Value
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}

func renderDashboard(w io.Writer, d *engine.DashboardResult) error {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Admissions dashboard (%d records)", d.Records)))
	fmt.Fprintln(w, subtleStyle.Render(describeFilter(d.Filter)))
	if err := renderKPIs(w, d.KPIs); err != nil {
		return err
	}
	for _, p := range d.Panels {
		fmt.Fprintln(w)
		if p.Err != "" {
			fmt.Fprintln(w, titleStyle.Render(p.Panel.Title))
			fmt.Fprintln(w, warnStyle.Render("unavailable: "+p.Err))
			continue
		}
		if err := renderTable(w, p.Table); err != nil {
			return err
		}
	}
	return nil
}

// writeDashboardCSV writes each panel as its own CSV block headed by the
// panel name, blocks separated by an empty record.
func writeDashboardCSV(w io.Writer, d *engine.DashboardResult) error {
	cw := csv.NewWriter(w)
	for i, p := range d.Panels {
		if p.Summary == nil {
			continue
		}
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if err := cw.Write([]string{"# " + p.Panel.Name}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		if err := writeSummaryRecords(cw, p.Summary); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func describeFilter(f engine.FilterSpec) string {
	part := func(name string, vals []string) string {
		if len(vals) == 0 {
			return name + ": all"
		}
		return name + ": " + strings.Join(vals, ", ")
	}
	return strings.Join([]string{
		part("terms", f.Terms),
		"years: " + f.Years.String(),
		part("departments", f.Departments),
	}, " · ")
}

// ============================================================================
// SCHEMA
// ============================================================================

func renderProfile(w io.Writer, p *schema.TableProfile, missing []schema.Field) error {
	t := &engine.TableData{
		Title: fmt.Sprintf("Columns (%d rows profiled)", p.Rows),
		Columns: []engine.Column{
			{Key: "column", Label: "Column", Align: "left"},
			{Key: "field", Label: "Field", Align: "left"},
			{Key: "type", Label: "Type", Align: "left"},
			{Key: "nulls", Label: "Nulls", Align: "right"},
			{Key: "unique", Label: "Unique", Align: "right"},
			{Key: "note", Label: "Note", Align: "left"},
		},
	}
	for _, c := range p.Columns {
		field := string(c.Field)
		if c.Department != "" {
			field += " (" + c.Department + ")"
		}
		if !c.Mapped {
			field = "-"
		}
		note := c.Warning
		if note == "" {
			note = c.Reason
		}
		t.Rows = append(t.Rows, []string{
			c.Raw,
			field,
			string(c.Type),
			strconv.Itoa(c.NullCount),
			strconv.Itoa(c.UniqueCount),
			note,
		})
	}
	if err := renderTable(w, t); err != nil {
		return err
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		_, err := fmt.Fprintln(w, warnStyle.Render("missing required fields: "+strings.Join(names, ", ")))
		return err
	}
	return nil
}

func writeProfileCSV(w io.Writer, p *schema.TableProfile) error {
	cw := csv.NewWriter(w)
	header := []string{"column", "field", "department", "type", "nulls", "unique", "numeric_ratio", "warning"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	for _, c := range p.Columns {
		err := cw.Write([]string{
			c.Raw,
			string(c.Field),
			c.Department,
			string(c.Type),
			strconv.Itoa(c.NullCount),
			strconv.Itoa(c.UniqueCount),
			strconv.FormatFloat(c.NumericRatio, 'f', 2, 64),
			c.Warning,
		})
		if err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
