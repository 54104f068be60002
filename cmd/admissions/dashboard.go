package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spektr-org/admissions/engine"
)

func dashboardCmd() *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Recompute the KPI block and every dashboard panel for a filter",
		Example: `  admissions dashboard --data admissions.csv
  admissions dashboard --data admissions.csv --terms Spring --year-set 2019,2021 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := viper.GetString("format")
			if err := validateFormat(format, "table", "json", "csv"); err != nil {
				return err
			}
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			ds, err := loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			result, err := engine.NewSession(ds.Store).Dashboard(spec, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(out, result)
			case "csv":
				return writeDashboardCSV(out, result)
			}
			return renderDashboard(out, result)
		},
	}

	filter.register(cmd)
	return cmd
}
