package models

import (
	"encoding/json"
	"time"
)

// Agent identifies one of the five fixed pipeline stages.
type Agent string

const (
	AgentBrief     Agent = "brief"
	AgentWriter    Agent = "writer"
	AgentVisual    Agent = "visual"
	AgentReviewer  Agent = "reviewer"
	AgentPublisher Agent = "publisher"
)

// AllAgents returns the five agents in pipeline execution order.
func AllAgents() []Agent {
	return []Agent{AgentBrief, AgentWriter, AgentVisual, AgentReviewer, AgentPublisher}
}

type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	// StageRetried means the stage succeeded after at least one failed attempt.
	StageRetried StageStatus = "retried-then-succeeded"
)

// StageResult is the immutable outcome of one stage execution. A retry
// produces a new attempt inside the same result, never a mutation of a
// previously returned result.
type StageResult struct {
	Agent      Agent           `json:"agent"`
	Status     StageStatus     `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Attempts   int             `json:"attempts"`
	Elapsed    time.Duration   `json:"elapsed"`
	IsFallback bool            `json:"is_fallback"`
	Error      string          `json:"error,omitempty"`
}

// Succeeded reports whether the stage produced a non-fallback payload.
func (r StageResult) Succeeded() bool {
	return r.Status == StageSuccess || r.Status == StageRetried
}

// AsText extracts a plain string from a payload. Free-text stages store their
// output as a JSON-encoded string; JSON stages fall through to the raw bytes.
func AsText(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return string(payload)
}
