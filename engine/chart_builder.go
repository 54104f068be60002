package engine

import (
	"sort"
	"strings"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a Summary
// ============================================================================
// x axis = first group-by dimension.
// One series per (remaining key parts × metric); a single-dimension summary
// gets one series per metric. No-data points are left out of their series.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig, or nil when the summary has no rows.
func BuildChart(s *Summary, chartType, title string) *ChartConfig {
	if len(s.Rows) == 0 {
		return nil
	}
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      title,
		ShowLegend: true,
		ShowGrid:   chartType != "pie",
	}
	if len(s.GroupBy) > 0 {
		config.XAxis = LabelForDimension(s.GroupBy[0])
	}
	config.YAxis = "Value"
	if len(s.Metrics) == 1 {
		config.YAxis = LabelForMetric(s.Metrics[0])
	}

	if len(s.GroupBy) >= 2 {
		config.Series = buildMultiSeries(s)
	} else {
		config.Series = buildSingleSeries(s)
	}

	config.Colors = assignColors(len(config.Series))
	for i := range config.Series {
		config.Series[i].Color = config.Colors[i]
	}
	return config
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func xLabel(r SummaryRow) string {
	if len(r.Keys) == 0 {
		return "Total"
	}
	return r.Keys[0]
}

func buildSingleSeries(s *Summary) []ChartSeries {
	series := make([]ChartSeries, 0, len(s.Metrics))
	for m, metric := range s.Metrics {
		points := make([]ChartPoint, 0, len(s.Rows))
		for _, r := range s.Rows {
			if !r.Values[m].Valid {
				continue
			}
			points = append(points, ChartPoint{
				Label: xLabel(r),
				Value: RoundTo2(r.Values[m].Number),
			})
		}
		if len(points) == 0 {
			continue
		}
		series = append(series, ChartSeries{
			Name: LabelForMetric(metric),
			Data: points,
		})
	}
	return series
}

func buildMultiSeries(s *Summary) []ChartSeries {
	// distinct trailing key parts, ordered like summary rows
	subKeys := make(map[string][]string)
	for _, r := range s.Rows {
		id := strings.Join(r.Keys[1:], " / ")
		if _, ok := subKeys[id]; !ok {
			subKeys[id] = r.Keys[1:]
		}
	}
	ids := make([]string, 0, len(subKeys))
	for id := range subKeys {
		ids = append(ids, id)
	}
	dims := s.GroupBy[1:]
	sort.Slice(ids, func(i, j int) bool {
		a, b := subKeys[ids[i]], subKeys[ids[j]]
		for d, dim := range dims {
			if c := CompareKeys(dim, a[d], b[d]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	series := make([]ChartSeries, 0, len(ids)*len(s.Metrics))
	for _, id := range ids {
		for m, metric := range s.Metrics {
			points := make([]ChartPoint, 0, len(s.Rows))
			for _, r := range s.Rows {
				if strings.Join(r.Keys[1:], " / ") != id || !r.Values[m].Valid {
					continue
				}
				points = append(points, ChartPoint{
					Label: r.Keys[0],
					Value: RoundTo2(r.Values[m].Number),
				})
			}
			if len(points) == 0 {
				continue
			}
			name := id
			if len(s.Metrics) > 1 {
				name = id + " " + LabelForDimension(metric.Field)
			}
			series = append(series, ChartSeries{Name: name, Data: points})
		}
	}
	return series
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
