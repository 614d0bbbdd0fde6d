package contract

import (
	"encoding/json"
	"fmt"

	"github.com/storycraft/storycraft/pkg/models"
)

// BuildUserPrompt assembles the stage's user prompt from the idea and the
// validated payloads of its upstream dependencies. The output is
// deterministic for a given input set: upstream payloads are keyed by agent
// name and marshaled with Go's sorted map-key ordering.
func BuildUserPrompt(c StageContract, idea string, inputs map[models.Agent]json.RawMessage) (string, error) {
	if len(c.DependsOn) == 0 {
		return fmt.Sprintf("Idea: %s\nReturn a single JSON object as described.", idea), nil
	}

	context := make(map[string]json.RawMessage, len(c.DependsOn))
	for _, dep := range c.DependsOn {
		payload, ok := inputs[dep]
		if !ok {
			return "", &MisconfigurationError{Agent: string(c.Agent), Reason: "missing upstream input " + string(dep)}
		}
		context[string(dep)] = payload
	}

	encoded, err := json.Marshal(context)
	if err != nil {
		return "", &MisconfigurationError{Agent: string(c.Agent), Reason: "encode context: " + err.Error()}
	}
	return "Context:\n" + string(encoded), nil
}
