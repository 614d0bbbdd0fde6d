// Package runner executes a single pipeline stage: prompt assembly, the
// model call through the retry controller, contract validation, and fallback
// substitution when retries run out.
package runner

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/storycraft/storycraft/pkg/contract"
	"github.com/storycraft/storycraft/pkg/llm"
	"github.com/storycraft/storycraft/pkg/memory"
	"github.com/storycraft/storycraft/pkg/models"
	"github.com/storycraft/storycraft/pkg/retry"
)

type Runner struct {
	client llm.Client
	store  memory.Store
	policy retry.Policy
	logger *zap.Logger
}

func New(client llm.Client, store memory.Store, policy retry.Policy, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, store: store, policy: policy, logger: logger}
}

// Run executes one stage. A non-nil error means the run must abort: the
// contract is misconfigured, the provider failed fatally, or the context was
// cancelled. Exhausted retries do NOT return an error; they return a failed
// StageResult carrying the contract's fallback payload so downstream stages
// can keep going.
func (r *Runner) Run(ctx context.Context, namespace string, c contract.StageContract, idea string, inputs map[models.Agent]json.RawMessage) (models.StageResult, error) {
	start := time.Now()

	if err := c.Check(); err != nil {
		return models.StageResult{}, err
	}
	user, err := contract.BuildUserPrompt(c, idea, inputs)
	if err != nil {
		return models.StageResult{}, err
	}
	prompt := llm.Prompt{Agent: string(c.Agent), System: c.System, User: user}

	// Every attempt reuses the same prompt; prior bad outputs are not fed
	// back into the context.
	op := func(ctx context.Context) ([]byte, error) {
		raw, err := r.client.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		payload, verr := c.Validate(raw)
		if verr != nil {
			return nil, verr
		}
		return payload, nil
	}

	res := retry.Do(ctx, r.policy, op)
	elapsed := time.Since(start)

	if res.Err == nil {
		status := models.StageSuccess
		if len(res.Attempts) > 1 {
			status = models.StageRetried
		}
		result := models.StageResult{
			Agent:    c.Agent,
			Status:   status,
			Payload:  json.RawMessage(res.Value),
			Attempts: len(res.Attempts),
			Elapsed:  elapsed,
		}
		r.remember(namespace, c.Agent, result.Payload)
		return result, nil
	}

	if res.Cancelled() || res.Fatal {
		r.logger.Warn("stage aborted",
			zap.String("agent", string(c.Agent)),
			zap.Int("attempts", len(res.Attempts)),
			zap.Error(res.Err))
		return models.StageResult{}, res.Err
	}

	// Attempt budget exhausted on transient failures: substitute the
	// contract's fallback and flag it so the run surfaces degraded quality.
	r.logger.Warn("stage fell back after exhausting retries",
		zap.String("agent", string(c.Agent)),
		zap.Int("attempts", len(res.Attempts)),
		zap.Error(res.Err))
	return models.StageResult{
		Agent:      c.Agent,
		Status:     models.StageFailed,
		Payload:    c.Fallback,
		Attempts:   len(res.Attempts),
		Elapsed:    elapsed,
		IsFallback: true,
		Error:      res.Err.Error(),
	}, nil
}

// remember writes the validated payload for later inspection. Memory is an
// aid, not a dependency: failures are logged and swallowed.
func (r *Runner) remember(namespace string, agent models.Agent, payload json.RawMessage) {
	if r.store == nil {
		return
	}
	if err := r.store.Put(namespace, string(agent), payload); err != nil {
		r.logger.Warn("memory write failed",
			zap.String("agent", string(agent)),
			zap.String("namespace", namespace),
			zap.Error(err))
	}
}
