package contract

import "fmt"

// ErrorKind classifies a validation failure. All validation kinds are
// transient from the retry controller's point of view: a later attempt may
// produce conforming output.
type ErrorKind string

const (
	MalformedOutput ErrorKind = "malformed_output"
	SchemaViolation ErrorKind = "schema_violation"
	EmptyOutput     ErrorKind = "empty_output"
	LengthViolation ErrorKind = "length_violation"
)

// ValidationError reports why a raw model output failed its contract.
type ValidationError struct {
	Kind   ErrorKind
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Transient marks validation failures as retryable.
func (e *ValidationError) Transient() bool { return true }

// MisconfigurationError is a programmer error in a contract definition. It is
// fatal: no retry can fix a bad contract.
type MisconfigurationError struct {
	Agent  string
	Reason string
}

func (e *MisconfigurationError) Error() string {
	return fmt.Sprintf("contract misconfigured for %s: %s", e.Agent, e.Reason)
}

func (e *MisconfigurationError) Transient() bool { return false }
