package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/report"
	"github.com/sells-group/agent-eval/internal/sink"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect persisted evaluation results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List execution records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		snk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer snk.Close() //nolint:errcheck

		runID, _ := cmd.Flags().GetString("run")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := snk.Query(ctx, sink.Filter{
			RunID:  runID,
			Status: model.RecordStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "results list")
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No records found.")
			return nil
		}

		report.RenderRecords(os.Stdout, records)
		return nil
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id> <case-id>",
	Short: "Show one execution record in full",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer snk.Close() //nolint:errcheck

		records, err := snk.Query(ctx, sink.Filter{RunID: args[0], TestCaseID: args[1]})
		if err != nil {
			return eris.Wrap(err, "results show")
		}
		if len(records) == 0 {
			return eris.Errorf("no record for run %s case %s", args[0], args[1])
		}

		return printJSON(records[len(records)-1])
	},
}

var resultsSummaryCmd = &cobra.Command{
	Use:   "summary <run-id>",
	Short: "Summarize a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer snk.Close() //nolint:errcheck

		records, err := snk.Query(ctx, sink.Filter{RunID: args[0]})
		if err != nil {
			return eris.Wrap(err, "results summary")
		}
		if len(records) == 0 {
			return eris.Errorf("no records for run %s", args[0])
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		summary := report.Summarize(args[0], records)
		if asJSON {
			return printJSON(summary)
		}
		report.Render(os.Stdout, summary)
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	resultsListCmd.Flags().String("run", "", "filter by run ID")
	resultsListCmd.Flags().String("status", "", "filter by status: success, failure, error")
	resultsListCmd.Flags().Int("limit", 50, "maximum records to list")
	resultsSummaryCmd.Flags().Bool("json", false, "print as JSON")

	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsSummaryCmd)
	rootCmd.AddCommand(resultsCmd)
}
