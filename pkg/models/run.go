package models

import "time"

type RunState string

const (
	RunNotStarted       RunState = "NotStarted"
	RunRunningBrief     RunState = "RunningBrief"
	RunRunningWriter    RunState = "RunningWriter"
	RunRunningVisual    RunState = "RunningVisual"
	RunRunningReviewer  RunState = "RunningReviewer"
	RunRunningPublisher RunState = "RunningPublisher"
	RunCompleted        RunState = "Completed"
	RunAborted          RunState = "Aborted"
)

// RunningState maps an agent to the run state that covers its execution.
func RunningState(agent Agent) RunState {
	switch agent {
	case AgentBrief:
		return RunRunningBrief
	case AgentWriter:
		return RunRunningWriter
	case AgentVisual:
		return RunRunningVisual
	case AgentReviewer:
		return RunRunningReviewer
	case AgentPublisher:
		return RunRunningPublisher
	}
	return RunNotStarted
}

// PipelineRun is the full record of one pipeline execution. The orchestrator
// is its sole owner until it reaches a terminal state.
type PipelineRun struct {
	ID          string        `json:"id"`
	Idea        string        `json:"idea"`
	State       RunState      `json:"state"`
	Stages      []StageResult `json:"stages"`
	Degraded    bool          `json:"degraded"`
	FinalText   string        `json:"final_text,omitempty"`
	AbortReason string        `json:"abort_reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Terminal reports whether the run reached a final state.
func (r *PipelineRun) Terminal() bool {
	return r.State == RunCompleted || r.State == RunAborted
}

// StageFor returns the recorded result for an agent, or nil if the stage has
// not produced one.
func (r *PipelineRun) StageFor(agent Agent) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Agent == agent {
			return &r.Stages[i]
		}
	}
	return nil
}
