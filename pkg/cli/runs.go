package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "inspect past pipeline runs",
	}
	cmd.AddCommand(newRunsListCommand(a))
	cmd.AddCommand(newRunsShowCommand(a))
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			runs, err := a.store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s degraded=%-5v  %s  %q\n",
					run.ID, run.State, run.Degraded,
					run.CreatedAt.Format("2006-01-02 15:04:05"), run.Idea)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newRunsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "print one run with all stage results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			run, err := a.store.GetRun(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, run)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
