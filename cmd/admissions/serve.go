package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/admissions/helpers"
	"github.com/spektr-org/admissions/mcpserver"
)

func serveCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve describe_dataset, summarize and dashboard as MCP tools over stdio",
		Long: `Start an MCP server on stdin/stdout. Logs go to stderr.

With --watch the dataset file is reloaded when it changes on disk; a reload
that fails keeps the previous dataset.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			location, _, err := dataLocation()
			if err != nil {
				return err
			}
			if watch && (strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")) {
				return fmt.Errorf("--watch needs a local file, got %s", location)
			}

			ds, err := loadDataset(ctx)
			if err != nil {
				return err
			}
			srv := mcpserver.New(mcpserver.Deps{
				Dataset: ds,
				Logger:  slog.Default(),
				Version: version,
			})

			if watch {
				path := strings.TrimPrefix(location, "file://")
				go func() {
					err := helpers.Watch(ctx, path, func() {
						next, err := loadDataset(ctx)
						if err != nil {
							slog.Warn("reload failed, keeping previous dataset", "error", err)
							return
						}
						srv.Reload(next)
					}, helpers.WithLogger(slog.Default()))
					if err != nil {
						slog.Error("watcher stopped", "error", err)
					}
				}()
			}

			return srv.ServeStdio()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload the dataset when the file changes")
	return cmd
}
