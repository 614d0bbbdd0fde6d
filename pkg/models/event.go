package models

import "time"

// EventStatus values extend StageStatus with the in-progress marker used by
// progress events.
const (
	EventRunning   = "running"
	EventCompleted = "completed"
	EventAborted   = "aborted"
)

// Event is the orchestrator's progress notification. Consumers (CLI, HTTP
// subscribers, logs) are passive; emission never blocks the pipeline.
type Event struct {
	RunID    string        `json:"run_id"`
	Stage    Agent         `json:"stage,omitempty"`
	Status   string        `json:"status"`
	Elapsed  time.Duration `json:"elapsed"`
	Degraded bool          `json:"degraded"`
}
