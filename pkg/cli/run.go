package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storycraft/storycraft/pkg/artifact"
	"github.com/storycraft/storycraft/pkg/models"
	"github.com/storycraft/storycraft/pkg/orchestrator"
)

func newRunCommand(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run \"a one-line story idea\"",
		Short: "execute the five-stage pipeline for an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()
			return runPipeline(cmd, a, args[0], jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the machine-readable run summary instead of the document")
	return cmd
}

func runPipeline(cmd *cobra.Command, a *app, idea string, jsonOut bool) error {
	// Ctrl-C cancels cooperatively: the in-flight stage stops retrying and
	// the run lands in Aborted with a cancellation reason.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emitter := orchestrator.NewChanEmitter(64)
	a.orch.OnEvent(emitter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range emitter.Events() {
			printEvent(cmd, ev)
		}
	}()

	run, err := a.orch.Execute(ctx, idea)
	emitter.Close()
	wg.Wait()

	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s aborted: %s\n", run.ID, run.AbortReason)
		printPartial(cmd, run)
		return err
	}

	doc, buildErr := artifact.Build(run)
	if buildErr != nil {
		return buildErr
	}

	if jsonOut {
		return printJSON(cmd, doc.Summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s completed (degraded=%v)\n\n", run.ID, run.Degraded)
	fmt.Fprintln(cmd.OutOrStdout(), doc.Markdown)
	return nil
}

func printEvent(cmd *cobra.Command, ev models.Event) {
	stage := string(ev.Stage)
	if stage == "" {
		stage = "pipeline"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s (%.1fs)\n", stage, ev.Status, ev.Elapsed.Seconds())
}

func printPartial(cmd *cobra.Command, run *models.PipelineRun) {
	for _, st := range run.Stages {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s (attempts=%d fallback=%v)\n",
			st.Agent, st.Status, st.Attempts, st.IsFallback)
	}
}
