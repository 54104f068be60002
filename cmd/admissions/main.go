package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ============================================================================
// ADMISSIONS CLI — filter and aggregate university admissions data
// ============================================================================

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admissions",
		Short: "Filter and aggregate university admissions data",
		Long: `admissions loads a table of per-term admissions figures (CSV file, URL or
SQLite table), normalizes its headers, and answers filter + group-by
questions over it: applications, admissions, enrollments, retention and
satisfaction by term, year and department.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/admissions/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("data", "", "dataset location: CSV path, http(s) URL, or SQLite file with --table")
	flags.String("table", "", "read --data as a SQLite database and load this table")
	flags.String("format", "table", "output format (table, json, csv)")

	for _, key := range []string{"log-level", "log-format", "data", "table", "format"} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(summarizeCmd())
	root.AddCommand(dashboardCmd())
	root.AddCommand(schemaCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(fmt.Sprintf("%s/.config/admissions", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ADMISSIONS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func setupLogging() error {
	level := viper.GetString("log-level")
	format := viper.GetString("log-format")

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	switch format {
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "admissions %s\n", version)
		},
	}
}
