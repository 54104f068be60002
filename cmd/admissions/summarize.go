package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spektr-org/admissions/engine"
)

type summarizeOutput struct {
	Filter  engine.FilterSpec `json:"filter"`
	Records int               `json:"records"`
	Summary *engine.Summary   `json:"summary"`
}

func summarizeCmd() *cobra.Command {
	var (
		filter  filterFlags
		groupBy []string
		metrics []string
		reqFile string
		title   string
		chart   string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Filter the dataset and aggregate it by term, year or department",
		Long: `Filter the dataset and aggregate one or more metrics per group.

Metrics are field:op pairs with op sum or mean (a bare field means sum):
  applications, admitted, enrolled, retention_rate, satisfaction_score

Grouping by department on a table with only per-department enrollment
columns melts those columns first; only enrolled can be aggregated then.`,
		Example: `  admissions summarize --data admissions.csv --group-by year,term --metric applications:sum
  admissions summarize --data admissions.csv --terms Fall --years 2019-2022 --group-by department --metric enrolled
  admissions summarize --data admissions.db --table admissions --request query.json --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := viper.GetString("format")
			if err := validateFormat(format, "table", "json", "csv", "chart"); err != nil {
				return err
			}

			req, err := buildRequest(&filter, groupBy, metrics, reqFile)
			if err != nil {
				return err
			}

			ds, err := loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			session := engine.NewSession(ds.Store)
			if err := session.SetFilter(req.Filter); err != nil {
				return err
			}
			summary, err := session.Summarize(req.GroupBy, req.Metrics)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(out, summarizeOutput{
					Filter:  session.Filter(),
					Records: session.View().Len(),
					Summary: summary,
				})
			case "csv":
				return writeSummaryCSV(out, summary)
			case "chart":
				return writeJSON(out, engine.BuildChart(summary, chart, title))
			}
			return renderTable(out, engine.BuildTable(summary, title))
		},
	}

	filter.register(cmd)
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "dimensions to group by, in order: term, year, department")
	cmd.Flags().StringSliceVar(&metrics, "metric", nil, "metric as field:op (repeatable or comma-separated)")
	cmd.Flags().StringVar(&reqFile, "request", "", "JSON request file with filter, groupBy and metrics (overrides the other flags)")
	cmd.Flags().StringVar(&title, "title", "", "table or chart title")
	cmd.Flags().StringVar(&chart, "chart", "bar", "chart type for --format chart (bar, line, grouped_bar)")
	return cmd
}

// buildRequest assembles the request from a JSON file or from flags.
func buildRequest(f *filterFlags, groupBy, metrics []string, reqFile string) (*engine.Request, error) {
	if reqFile != "" {
		data, err := os.ReadFile(reqFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read request: %w", err)
		}
		return engine.ParseRequest(data)
	}

	spec, err := f.spec()
	if err != nil {
		return nil, err
	}
	ms, err := engine.ParseMetrics(metrics)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("at least one --metric is required")
	}
	dims := make([]string, 0, len(groupBy))
	for _, d := range groupBy {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			dims = append(dims, d)
		}
	}
	return &engine.Request{Filter: spec, GroupBy: dims, Metrics: ms}, nil
}
