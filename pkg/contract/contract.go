// Package contract declares the per-stage output contracts of the story
// pipeline and validates raw model output against them.
package contract

import (
	"encoding/json"

	"github.com/storycraft/storycraft/pkg/models"
)

// Kind selects the structural shape a stage must produce.
type Kind string

const (
	// KindJSON requires a single JSON object with declared fields.
	KindJSON Kind = "json"
	// KindJSONArray requires a JSON array whose elements carry the declared fields.
	KindJSONArray Kind = "json_array"
	// KindText requires non-empty free text within a length band.
	KindText Kind = "text"
)

type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldArray  FieldType = "array"
	FieldObject FieldType = "object"
	// FieldAny only requires presence.
	FieldAny FieldType = "any"
)

// Field is one required entry of a strict-JSON contract.
type Field struct {
	Name string
	Type FieldType
	// Enum restricts a string field to a closed value set.
	Enum []string
	// Min/Max bound a number field when set.
	Min *float64
	Max *float64
}

// StageContract fixes what a stage consumes and what its output must look
// like. The five instances in contracts.go are created once at process start
// and never change during a run.
type StageContract struct {
	Agent  models.Agent
	Kind   Kind
	Fields []Field
	// MinLen/MaxLen bound free-text output in bytes.
	MinLen int
	MaxLen int
	// System is the fixed instruction template sent with every attempt.
	System string
	// DependsOn lists upstream agents whose results feed this stage's prompt.
	DependsOn []models.Agent
	// Fallback is a minimal payload that satisfies this contract, substituted
	// when the stage exhausts its retries.
	Fallback json.RawMessage
}

// Check rejects contracts that can never validate any output. Called before a
// stage runs so misconfiguration surfaces immediately instead of burning
// retries.
func (c StageContract) Check() error {
	switch c.Kind {
	case KindJSON, KindJSONArray:
		if len(c.Fields) == 0 {
			return &MisconfigurationError{Agent: string(c.Agent), Reason: "strict-JSON contract declares no fields"}
		}
		for _, f := range c.Fields {
			if f.Name == "" {
				return &MisconfigurationError{Agent: string(c.Agent), Reason: "field with empty name"}
			}
			if len(f.Enum) > 0 && f.Type != FieldString {
				return &MisconfigurationError{Agent: string(c.Agent), Reason: "enum on non-string field " + f.Name}
			}
		}
	case KindText:
		if c.MaxLen > 0 && c.MinLen > c.MaxLen {
			return &MisconfigurationError{Agent: string(c.Agent), Reason: "min length exceeds max length"}
		}
	default:
		return &MisconfigurationError{Agent: string(c.Agent), Reason: "unknown contract kind " + string(c.Kind)}
	}
	if len(c.Fallback) == 0 {
		return &MisconfigurationError{Agent: string(c.Agent), Reason: "missing fallback payload"}
	}
	return nil
}
