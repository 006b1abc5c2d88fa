package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/agent-eval/internal/trajectory"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trajectory-file>",
	Short: "Pretty-print a recorded trajectory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := trajectory.LoadFile(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Task: %s\n", t.Task)
		fmt.Printf("Status: %s", t.Status)
		if t.EndedAt != nil {
			fmt.Printf(" (%s)", t.Duration().Round(time.Millisecond))
		}
		fmt.Println()
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, step := range t.Steps {
			_, _ = fmt.Fprintf(w, "[%d]\tthought:\t%s\n", step.Sequence, step.Thought)
			_, _ = fmt.Fprintf(w, "\taction:\t%s\n", step.Action)
			_, _ = fmt.Fprintf(w, "\tobservation:\t%s\n", step.Observation)
		}
		_ = w.Flush()

		if t.FinalResult != "" {
			fmt.Printf("\nFinal result: %s\n", t.FinalResult)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
