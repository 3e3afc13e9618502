// Command soccerstat cleans football season-stats CSV exports from the
// command line.
//
// Usage:
//
//	soccerstat clean players.csv -o cleaned.csv
//	soccerstat clean players.csv --xlsx cleaned.xlsx --gls-limit 36
//	soccerstat validate players.csv
//	soccerstat columns
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/JonMunkholm/soccerstat/internal/export"
	"github.com/JonMunkholm/soccerstat/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "soccerstat",
		Short:         "Clean football-player season statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	// Logs go to stderr so cleaned CSV can be piped from stdout.
	logger := func(cmd *cobra.Command) *slog.Logger {
		return logging.New(cmd.ErrOrStderr(), logLevel, logFormat)
	}

	root.AddCommand(cleanCmd(logger))
	root.AddCommand(validateCmd())
	root.AddCommand(columnsCmd())
	return root
}

// --------------------------------------------------------------------------
// clean command
// --------------------------------------------------------------------------

func cleanCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var output, xlsxPath string
	var glsLimit float64

	cmd := &cobra.Command{
		Use:   "clean <input.csv>",
		Short: "Clean a season-stats CSV and write the result",
		Long: "Clean a season-stats CSV. The cleaned table is written to --output " +
			"(stdout when omitted) and optionally to an XLSX workbook. Every " +
			"correction is reported as a warning; only unreadable input fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts := core.CleanerOptions(cfg.Clean)
			if cmd.Flags().Changed("gls-limit") {
				if glsLimit <= 0 {
					return fmt.Errorf("--gls-limit must be positive, got %v", glsLimit)
				}
				opts = opts.WithRecordLimit(core.ColGls, glsLimit)
			}

			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			res := core.NewCleaner(opts).Clean(raw)
			for _, d := range res.Diagnostics {
				if d.Failed() {
					log.Error(d.Message, "stage", d.Stage, "code", d.Code)
				} else {
					log.Warn(d.Message, "stage", d.Stage, "code", d.Code)
				}
			}

			if err := writeOutput(cmd, output, res.Table); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := writeXLSX(xlsxPath, res); err != nil {
					return err
				}
			}

			s := res.Summary
			log.Info("clean completed",
				"rows_in", s.RowsIn,
				"rows_removed", s.RowsRemoved,
				"rows_remaining", s.RowsOut,
				"columns", s.ColumnsOut,
				"diagnostics", len(res.Diagnostics),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Cleaned CSV path (default stdout)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the cleaned table and diagnostics to this XLSX file")
	cmd.Flags().Float64Var(&glsLimit, "gls-limit", core.RecordGoals, "Record limit for goals")
	return cmd
}

func readInput(cmd *cobra.Command, path string) (*core.Table, error) {
	if path == "-" {
		return core.ReadTable(cmd.InOrStdin(), 0)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	t, err := core.ReadTable(f, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

func writeOutput(cmd *cobra.Command, path string, t *core.Table) error {
	if path == "" || path == "-" {
		return core.WriteCSV(cmd.OutOrStdout(), t)
	}
	return writeFile(path, func(w io.Writer) error { return core.WriteCSV(w, t) })
}

func writeXLSX(path string, res core.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return export.WriteXLSX(w, res.Table, res.Diagnostics)
	})
}

// writeFile creates path and closes it, keeping the first error.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// validate command
// --------------------------------------------------------------------------

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <input.csv>",
		Short: "Compare a CSV header to the expected season-stats columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			header, err := core.ReadHeader(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			report := core.ValidateHeaders(header)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "present: %d of %d expected columns\n", len(report.Present), len(core.ExpectedColumns))
			if len(report.Missing) > 0 {
				fmt.Fprintf(out, "missing: %s\n", strings.Join(report.Missing, ", "))
			}
			if len(report.Unknown) > 0 {
				fmt.Fprintf(out, "unknown: %s\n", strings.Join(report.Unknown, ", "))
			}
			if !report.Identifiable {
				fmt.Fprintf(out, "warning: no %s column, duplicate players cannot be resolved\n", core.ColPlayer)
			}
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// columns command
// --------------------------------------------------------------------------

func columnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List recognized columns and record limits",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "expected: %s\n", strings.Join(core.ExpectedColumns, ", "))
			fmt.Fprintf(out, "text:     %s\n", strings.Join(core.TextColumns, ", "))
			fmt.Fprintf(out, "counts:   %s\n", strings.Join(core.CountColumns, ", "))
			fmt.Fprintln(out, "record limits:")
			for _, l := range core.DefaultRecordLimits() {
				fmt.Fprintf(out, "  %-5s %s\n", l.Column, core.FormatNumber(l.Max))
			}
			fmt.Fprintf(out, "plausible age: %d-%d\n", core.MinPlausibleAge, core.MaxPlausibleAge)
		},
	}
}
