// Package memory persists per-agent payloads and run records for inspection
// and resume. Memory is keyed by (namespace, agent) where the namespace is a
// run id, so concurrent runs never clobber each other.
package memory

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/storycraft/storycraft/pkg/models"
)

var ErrNotFound = errors.New("memory: not found")

// Record is the last successful payload an agent produced within a namespace.
// Last write wins.
type Record struct {
	Namespace string          `json:"namespace"`
	Agent     string          `json:"agent"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Store interface {
	Put(namespace, agent string, payload json.RawMessage) error
	Get(namespace, agent string) (*Record, error)

	SaveRun(run *models.PipelineRun) error
	GetRun(id string) (*models.PipelineRun, error)
	ListRuns(limit int) ([]*models.PipelineRun, error)

	Close() error
}
