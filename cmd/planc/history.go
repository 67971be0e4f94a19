package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/h1t35h/AssetOpsBench/internal/state"
)

var (
	historyLimit     int
	historyFormat    string
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded compilations",
	Long: `Every compile and generate attempt is recorded in a SQLite database
(history.path, default $XDG_DATA_HOME/planc/history.db) unless
history.enabled is false or --no-history is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent compilations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistoryStrict()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListCompilations(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			printStatus("•", "no compilations recorded", okColor)
			return nil
		}
		writeHistoryTable(cmd.OutOrStdout(), records)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one recorded compilation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistoryStrict()
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := db.GetCompilation(args[0])
		if err != nil {
			return err
		}
		return writeRecord(cmd.OutOrStdout(), historyFormat, rec)
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge --older-than DURATION",
	Short: "Delete compilations older than a duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyOlderThan <= 0 {
			return errors.New("--older-than must be positive, e.g. 720h")
		}
		db, err := openHistoryStrict()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.PurgeOlderThan(historyOlderThan)
		if err != nil {
			return err
		}
		printStatus("✓", fmt.Sprintf("purged %d compilation(s)", n), okColor)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum records to list (0 for all)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum records to list (0 for all)")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", formatYAML, "Output format: json or yaml")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "Age threshold, e.g. 720h")
	historyPurgeCmd.MarkFlagRequired("older-than")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

// openHistoryStrict opens the configured history database, failing loudly.
func openHistoryStrict() (*state.DB, error) {
	db, err := state.Open(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func writeHistoryTable(w io.Writer, records []state.Record) {
	fmt.Fprintf(w, "%-36s  %-19s  %-7s  %-5s  %-8s  %s\n", "ID", "CREATED", "OUTCOME", "STEPS", "CODE", "SOURCE")
	for _, r := range records {
		code := r.ErrorCode
		if code == "" {
			code = "-"
		}
		source := r.Source
		if r.Attempt > 1 {
			source = fmt.Sprintf("%s #%d", source, r.Attempt)
		}
		fmt.Fprintf(w, "%-36s  %-19s  %-7s  %-5d  %-8s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome, r.StepCount, code, source)
	}
}

func writeRecord(w io.Writer, format string, rec *state.Record) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
