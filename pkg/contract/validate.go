package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks raw model output against the contract and returns the
// normalized payload. Free-text output is normalized to a JSON string so
// every stage payload is valid JSON. Validate is pure: the same (contract,
// raw) pair always yields the same verdict.
func (c StageContract) Validate(raw string) (json.RawMessage, error) {
	switch c.Kind {
	case KindText:
		return c.validateText(raw)
	case KindJSON:
		obj, payload, err := c.parseObject(raw)
		if err != nil {
			return nil, err
		}
		if err := c.checkFields(obj, ""); err != nil {
			return nil, err
		}
		return payload, nil
	case KindJSONArray:
		return c.validateArray(raw)
	}
	return nil, &MisconfigurationError{Agent: string(c.Agent), Reason: "unknown contract kind " + string(c.Kind)}
}

func (c StageContract) validateText(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ValidationError{Kind: EmptyOutput, Detail: "model returned empty text"}
	}
	if c.MinLen > 0 && len(text) < c.MinLen {
		return nil, &ValidationError{Kind: LengthViolation, Detail: fmt.Sprintf("%d bytes, need at least %d", len(text), c.MinLen)}
	}
	if c.MaxLen > 0 && len(text) > c.MaxLen {
		return nil, &ValidationError{Kind: LengthViolation, Detail: fmt.Sprintf("%d bytes, limit %d", len(text), c.MaxLen)}
	}
	payload, err := json.Marshal(text)
	if err != nil {
		return nil, &ValidationError{Kind: MalformedOutput, Detail: err.Error()}
	}
	return payload, nil
}

func (c StageContract) parseObject(raw string) (map[string]any, json.RawMessage, error) {
	trimmed := stripFences(raw)
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, nil, &ValidationError{Kind: MalformedOutput, Detail: err.Error()}
	}
	return obj, json.RawMessage(trimmed), nil
}

func (c StageContract) validateArray(raw string) (json.RawMessage, error) {
	trimmed := stripFences(raw)
	var items []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, &ValidationError{Kind: MalformedOutput, Detail: err.Error()}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Kind: EmptyOutput, Detail: "model returned an empty list"}
	}
	for i, item := range items {
		if err := c.checkFields(item, fmt.Sprintf("[%d].", i)); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(trimmed), nil
}

// checkFields verifies every declared field. Unknown extra fields are ignored
// so newer model output stays forward-compatible.
func (c StageContract) checkFields(obj map[string]any, prefix string) error {
	for _, f := range c.Fields {
		val, ok := obj[f.Name]
		if !ok {
			return &ValidationError{Kind: SchemaViolation, Field: prefix + f.Name, Detail: "required field missing"}
		}
		if err := checkType(f, val); err != nil {
			err.Field = prefix + f.Name
			return err
		}
	}
	return nil
}

func checkType(f Field, val any) *ValidationError {
	switch f.Type {
	case FieldAny:
		return nil
	case FieldString:
		s, ok := val.(string)
		if !ok {
			return &ValidationError{Kind: SchemaViolation, Detail: "expected string"}
		}
		if len(f.Enum) > 0 && !inEnum(f.Enum, s) {
			return &ValidationError{Kind: SchemaViolation, Detail: fmt.Sprintf("%q not in %v", s, f.Enum)}
		}
	case FieldNumber:
		n, ok := val.(float64)
		if !ok {
			return &ValidationError{Kind: SchemaViolation, Detail: "expected number"}
		}
		if f.Min != nil && n < *f.Min {
			return &ValidationError{Kind: SchemaViolation, Detail: fmt.Sprintf("%v below minimum %v", n, *f.Min)}
		}
		if f.Max != nil && n > *f.Max {
			return &ValidationError{Kind: SchemaViolation, Detail: fmt.Sprintf("%v above maximum %v", n, *f.Max)}
		}
	case FieldArray:
		if _, ok := val.([]any); !ok {
			return &ValidationError{Kind: SchemaViolation, Detail: "expected array"}
		}
	case FieldObject:
		if _, ok := val.(map[string]any); !ok {
			return &ValidationError{Kind: SchemaViolation, Detail: "expected object"}
		}
	}
	return nil
}

func inEnum(enum []string, s string) bool {
	for _, e := range enum {
		if e == s {
			return true
		}
	}
	return false
}

// stripFences tolerates models wrapping JSON in a markdown code fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}
