package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/report"
	"github.com/newthinker/smaprob/internal/scanner"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored scan runs",
	Long:  "List scan runs kept in the results store (requires storage.results.dsn to persist across invocations).",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print a stored scan run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEnv(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.close()

	runs, err := e.results.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tPERIOD\tWINDOW\tTHRESHOLD\tSYMBOLS\tSELECTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%d\t%s\t%d\t%d\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Start.Format(core.DateLayout), r.End.Format(core.DateLayout),
			r.Window,
			report.Percent(r.Threshold),
			len(r.Rows),
			len(r.Selected),
		)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEnv(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.close()

	run, err := e.results.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	data, err := report.ScanReport{
		RunID:        run.ID,
		CreatedAt:    run.CreatedAt,
		Start:        run.Start.Format(core.DateLayout),
		End:          run.End.Format(core.DateLayout),
		Window:       run.Window,
		Threshold:    run.Threshold,
		Rows:         run.Rows,
		Distribution: scanner.Distribution(run.Rows),
		Selected:     run.Selected,
	}.JSON()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
