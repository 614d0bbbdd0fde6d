// Package orchestrator sequences the five story-pipeline stages over their
// fixed dependency graph, aggregates stage results into a PipelineRun, and
// emits progress events. Stage failure handling is degraded-mode first: a
// stage that exhausts its retries falls back rather than cascading an abort;
// only fatal provider errors and cancellation terminate a run early.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storycraft/storycraft/pkg/contract"
	"github.com/storycraft/storycraft/pkg/memory"
	"github.com/storycraft/storycraft/pkg/models"
	"github.com/storycraft/storycraft/pkg/observability"
	"github.com/storycraft/storycraft/pkg/runner"
)

type Orchestrator struct {
	runner    *runner.Runner
	store     memory.Store
	contracts []contract.StageContract
	emitter   Emitter
	metrics   *observability.PipelineMetrics
	logger    *zap.Logger
}

func New(r *runner.Runner, store memory.Store, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		runner:    r,
		store:     store,
		contracts: contract.Pipeline(),
		logger:    logger,
	}
}

// OnEvent registers the progress subscriber. The subscriber is passive: it
// never influences control flow.
func (o *Orchestrator) OnEvent(e Emitter) { o.emitter = e }

// WithMetrics attaches a metrics sink.
func (o *Orchestrator) WithMetrics(m *observability.PipelineMetrics) { o.metrics = m }

// Execute runs the full pipeline for one idea. The returned PipelineRun is
// always usable: a Completed run carries the final artifact (possibly
// degraded), an Aborted run carries the partial stage results plus the abort
// reason. The error is non-nil only when the run aborted.
func (o *Orchestrator) Execute(ctx context.Context, idea string) (*models.PipelineRun, error) {
	run := &models.PipelineRun{
		ID:        uuid.NewString(),
		Idea:      idea,
		State:     models.RunNotStarted,
		CreatedAt: time.Now().UTC(),
	}
	o.logger.Info("pipeline run starting", zap.String("run_id", run.ID), zap.String("idea", idea))
	runStart := time.Now()

	for _, c := range o.contracts {
		// Cooperative cancellation checkpoint between stages.
		if err := ctx.Err(); err != nil {
			return o.abort(run, time.Since(runStart), fmt.Sprintf("cancelled before %s stage: %v", c.Agent, err), err)
		}

		inputs, err := o.gatherInputs(run, c)
		if err != nil {
			return o.abort(run, time.Since(runStart), err.Error(), err)
		}

		run.State = models.RunningState(c.Agent)
		o.emit(models.Event{RunID: run.ID, Stage: c.Agent, Status: models.EventRunning, Degraded: run.Degraded})

		result, err := o.runner.Run(ctx, run.ID, c, idea, inputs)
		if err != nil {
			reason := fmt.Sprintf("%s stage: %v", c.Agent, err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				reason = fmt.Sprintf("cancelled during %s stage: %v", c.Agent, err)
			}
			o.emit(models.Event{RunID: run.ID, Stage: c.Agent, Status: string(models.StageFailed), Degraded: run.Degraded})
			return o.abort(run, time.Since(runStart), reason, err)
		}

		run.Stages = append(run.Stages, result)
		if result.IsFallback {
			run.Degraded = true
		}
		o.record(result)
		o.emit(models.Event{
			RunID:    run.ID,
			Stage:    c.Agent,
			Status:   string(result.Status),
			Elapsed:  result.Elapsed,
			Degraded: run.Degraded,
		})
		o.logger.Info("stage finished",
			zap.String("run_id", run.ID),
			zap.String("agent", string(c.Agent)),
			zap.String("status", string(result.Status)),
			zap.Int("attempts", result.Attempts),
			zap.Bool("fallback", result.IsFallback))
	}

	o.complete(run)
	elapsed := time.Since(runStart)
	if o.metrics != nil {
		o.metrics.RunCompleted(run.Degraded, elapsed)
	}
	o.emit(models.Event{RunID: run.ID, Status: models.EventCompleted, Elapsed: elapsed, Degraded: run.Degraded})
	o.persist(run)
	o.logger.Info("pipeline run completed",
		zap.String("run_id", run.ID),
		zap.Bool("degraded", run.Degraded),
		zap.Duration("elapsed", elapsed))
	return run, nil
}

// gatherInputs enforces the transition guard: a stage starts only when every
// declared upstream dependency already has a result (success or fallback).
func (o *Orchestrator) gatherInputs(run *models.PipelineRun, c contract.StageContract) (map[models.Agent]json.RawMessage, error) {
	inputs := make(map[models.Agent]json.RawMessage, len(c.DependsOn))
	for _, dep := range c.DependsOn {
		res := run.StageFor(dep)
		if res == nil {
			return nil, &contract.MisconfigurationError{
				Agent:  string(c.Agent),
				Reason: "upstream dependency " + string(dep) + " has no result",
			}
		}
		inputs[dep] = res.Payload
	}
	return inputs, nil
}

func (o *Orchestrator) complete(run *models.PipelineRun) {
	run.State = models.RunCompleted
	now := time.Now().UTC()
	run.CompletedAt = &now
	if pub := run.StageFor(models.AgentPublisher); pub != nil {
		run.FinalText = models.AsText(pub.Payload)
	}
}

func (o *Orchestrator) abort(run *models.PipelineRun, elapsed time.Duration, reason string, err error) (*models.PipelineRun, error) {
	run.State = models.RunAborted
	run.AbortReason = reason
	now := time.Now().UTC()
	run.CompletedAt = &now
	if o.metrics != nil {
		o.metrics.RunAborted()
	}
	o.emit(models.Event{RunID: run.ID, Status: models.EventAborted, Elapsed: elapsed, Degraded: run.Degraded})
	o.persist(run)
	o.logger.Error("pipeline run aborted", zap.String("run_id", run.ID), zap.String("reason", reason))
	return run, err
}

func (o *Orchestrator) record(result models.StageResult) {
	if o.metrics == nil {
		return
	}
	o.metrics.StageFinished(string(result.Agent), result.Attempts, result.IsFallback, result.Elapsed)
}

// emit is fire-and-forget; a missing or slow subscriber never affects the run.
func (o *Orchestrator) emit(ev models.Event) {
	if o.emitter != nil {
		o.emitter.Emit(ev)
	}
}

// persist saves the run for later inspection. Persistence failures are
// logged, not fatal: the caller already holds the run in memory.
func (o *Orchestrator) persist(run *models.PipelineRun) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveRun(run); err != nil {
		o.logger.Warn("persist run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
