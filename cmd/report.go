package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/session"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List, show and generate feedback reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		reps, err := s.ReportRepo().ListReports(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		if len(reps) == 0 {
			fmt.Println("No reports yet. Finish a session with Ctrl+E or run `parley report generate <session-id>`.")
			return nil
		}

		fmt.Printf("%5s  %-16s  %-36s  %s\n", "ID", "Created", "Session", "Title")
		fmt.Println(strings.Repeat("─", 96))
		for _, r := range reps {
			fmt.Printf("%5d  %-16s  %-36s  %s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SessionID, truncate(r.Title, 32))
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.ReportRepo().GetReport(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		r, err := report.Decode(*rec)
		if err != nil {
			return err
		}
		fmt.Print(report.Text(r))
		return nil
	},
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate <session-id>",
	Short: "Generate a report for a past session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, logFile, err := openLogger(cfg)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer logFile.Close()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		d, err := buildDeps(ctx, cfg, s, logger, os.Stderr)
		if err != nil {
			return err
		}
		if !d.ready {
			return errors.New("no AI backend configured; set an API key or --backend")
		}

		r, rec, err := session.ReportFor(ctx, d.backend, s, args[0])
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		fmt.Print(report.Text(r))
		if rec != nil {
			fmt.Printf("\nSaved as report %d.\n", rec.ID)
		}
		return nil
	},
}

func init() {
	reportListCmd.Flags().IntP("limit", "n", 20, "Number of reports to show")

	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportGenerateCmd)
}
