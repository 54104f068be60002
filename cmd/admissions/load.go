package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/helpers"
	"github.com/spektr-org/admissions/schema"
)

// schemaConfig returns the default header aliases plus any configured under
// "aliases" (canonical field → extra headers).
func schemaConfig() schema.Config {
	cfg := schema.DefaultConfig()
	if extra := viper.GetStringMapStringSlice("aliases"); len(extra) > 0 {
		cfg = cfg.WithAliases(extra)
	}
	return cfg
}

func dataLocation() (string, string, error) {
	location := viper.GetString("data")
	if location == "" {
		return "", "", fmt.Errorf("no dataset: pass --data or set ADMISSIONS_DATA")
	}
	return location, viper.GetString("table"), nil
}

func loadDataset(ctx context.Context) (*helpers.Dataset, error) {
	location, table, err := dataLocation()
	if err != nil {
		return nil, err
	}
	ds, err := helpers.Load(ctx, location, table, schemaConfig(), helpers.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	slog.Debug("dataset loaded", "source", ds.Source, "records", ds.Store.Len(), "skipped", len(ds.Skipped))
	return ds, nil
}

// ============================================================================
// FILTER FLAGS
// ============================================================================

type filterFlags struct {
	terms       []string
	departments []string
	years       string
	yearSet     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.terms, "terms", nil, "terms to keep, e.g. Fall,Spring (default all)")
	cmd.Flags().StringSliceVar(&f.departments, "departments", nil, "departments to keep (default all)")
	cmd.Flags().StringVar(&f.years, "years", "", "inclusive year range, e.g. 2019-2022")
	cmd.Flags().StringVar(&f.yearSet, "year-set", "", "years to keep, e.g. 2019,2021")
	cmd.MarkFlagsMutuallyExclusive("years", "year-set")
}

func (f *filterFlags) spec() (engine.FilterSpec, error) {
	years, err := engine.ParseYearFilter(f.years, f.yearSet)
	if err != nil {
		return engine.FilterSpec{}, err
	}
	return engine.FilterSpec{
		Terms:       f.terms,
		Years:       years,
		Departments: f.departments,
	}, nil
}
