package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spektr-org/admissions/helpers"
	"github.com/spektr-org/admissions/schema"
)

type schemaOutput struct {
	Source  string               `json:"source"`
	Mapping *schema.Mapping      `json:"mapping"`
	Profile *schema.TableProfile `json:"profile"`
	Missing []schema.Field       `json:"missing,omitempty"`
}

func schemaCmd() *cobra.Command {
	var sampleSize int

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show how the dataset's headers map to canonical fields and profile each column",
		Long: `Resolve every header to a canonical field (or report why it was ignored)
and profile the column values. Required fields with no matching column are
listed, and the command fails, so a config alias can be added.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := viper.GetString("format")
			if err := validateFormat(format, "table", "json", "csv"); err != nil {
				return err
			}
			location, table, err := dataLocation()
			if err != nil {
				return err
			}

			t, err := helpers.LoadTable(cmd.Context(), location, table)
			if err != nil {
				return err
			}
			mapping, normErr := schema.Normalize(t.Headers, schemaConfig())
			var schemaErr *schema.SchemaError
			if normErr != nil && !errors.As(normErr, &schemaErr) {
				return normErr
			}

			opts := schema.DefaultProfileOptions()
			opts.SampleSize = sampleSize
			profile := schema.Profile(t.Rows, mapping, opts)

			var missing []schema.Field
			if schemaErr != nil {
				missing = schemaErr.Missing
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				err = writeJSON(out, schemaOutput{
					Source:  location,
					Mapping: mapping,
					Profile: profile,
					Missing: missing,
				})
			case "csv":
				err = writeProfileCSV(out, profile)
			default:
				err = renderProfile(out, profile, missing)
			}
			if err != nil {
				return err
			}
			return normErr
		},
	}

	cmd.Flags().IntVar(&sampleSize, "sample", schema.DefaultProfileOptions().SampleSize, "rows to profile (0 = all)")
	return cmd
}
