package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/agent-eval/internal/agent"
	"github.com/sells-group/agent-eval/internal/trajectory"
)

var (
	runMaxSteps       int
	runTrajectoryPath string
	runMock           bool
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run a single task through the reasoning loop",
	Long:  "Drives one think/decide/act/observe loop to completion and prints the final answer.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := args[0]

		client, err := initClient(runMock)
		if err != nil {
			return err
		}
		gateway, err := initGateway()
		if err != nil {
			return err
		}

		opts := agentOptions()
		if runMaxSteps > 0 {
			opts.MaxSteps = runMaxSteps
		}

		res, runErr := agent.New(client, gateway, opts).Run(cmd.Context(), task)
		if res != nil && runTrajectoryPath != "" {
			if err := trajectory.SaveFile(runTrajectoryPath, res.Trajectory); err != nil {
				return eris.Wrap(err, "save trajectory")
			}
			fmt.Fprintf(os.Stderr, "Trajectory written to %s\n", runTrajectoryPath)
		}

		if runErr != nil {
			if eris.Is(runErr, agent.ErrMaxSteps) {
				fmt.Fprintf(os.Stderr, "Step budget exhausted after %d steps. Partial progress:\n", len(res.Trajectory.Steps))
				fmt.Println(res.Answer)
				return nil
			}
			return runErr
		}

		fmt.Println(res.Answer)
		fmt.Fprintf(os.Stderr, "(%d steps, %d in / %d out tokens)\n",
			len(res.Trajectory.Steps), res.PromptTokens, res.CompletionTokens)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "override the configured step budget")
	runCmd.Flags().StringVar(&runTrajectoryPath, "trajectory", "", "write the full trajectory JSON to this path")
	runCmd.Flags().BoolVar(&runMock, "mock", false, "use the offline scripted model client")
	rootCmd.AddCommand(runCmd)
}
