package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycraft/storycraft/pkg/models"
)

func TestPipelineOrderAndDependencies(t *testing.T) {
	pipeline := Pipeline()
	require.Len(t, pipeline, 5)

	order := make([]models.Agent, 0, 5)
	for _, c := range pipeline {
		order = append(order, c.Agent)
	}
	assert.Equal(t, models.AllAgents(), order)

	// Every dependency points at an earlier stage.
	seen := map[models.Agent]bool{}
	for _, c := range pipeline {
		for _, dep := range c.DependsOn {
			assert.True(t, seen[dep], "%s depends on %s before it runs", c.Agent, dep)
		}
		seen[c.Agent] = true
	}

	byAgent := map[models.Agent][]models.Agent{}
	for _, c := range pipeline {
		byAgent[c.Agent] = c.DependsOn
	}
	assert.Empty(t, byAgent[models.AgentBrief])
	assert.Equal(t, []models.Agent{models.AgentBrief}, byAgent[models.AgentWriter])
	assert.Equal(t, []models.Agent{models.AgentBrief}, byAgent[models.AgentVisual])
	assert.Equal(t, []models.Agent{models.AgentWriter, models.AgentVisual}, byAgent[models.AgentReviewer])
	assert.Len(t, byAgent[models.AgentPublisher], 4)
}

func TestAllContractsWellFormed(t *testing.T) {
	for _, c := range Pipeline() {
		assert.NoError(t, c.Check(), "contract %s", c.Agent)
		assert.NotEmpty(t, c.System, "contract %s has no instruction template", c.Agent)
	}
}

// Every fallback must satisfy its own contract, otherwise a degraded run
// would hand invalid input to downstream stages.
func TestFallbacksSatisfyContracts(t *testing.T) {
	for _, c := range Pipeline() {
		raw := string(c.Fallback)
		if c.Kind == KindText {
			var text string
			require.NoError(t, json.Unmarshal(c.Fallback, &text), "contract %s", c.Agent)
			raw = text
		}
		_, err := c.Validate(raw)
		assert.NoError(t, err, "fallback for %s does not satisfy its contract", c.Agent)
	}
}

func TestByAgent(t *testing.T) {
	c, ok := ByAgent(models.AgentReviewer)
	require.True(t, ok)
	assert.Equal(t, models.AgentReviewer, c.Agent)

	_, ok = ByAgent(models.Agent("narrator"))
	assert.False(t, ok)
}

func TestBuildUserPromptDeterministic(t *testing.T) {
	inputs := map[models.Agent]json.RawMessage{
		models.AgentWriter: json.RawMessage(`"a story"`),
		models.AgentVisual: json.RawMessage(`[{"id":"s1"}]`),
	}
	first, err := BuildUserPrompt(Reviewer(), "idea", inputs)
	require.NoError(t, err)
	second, err := BuildUserPrompt(Reviewer(), "idea", inputs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Context:")
	assert.Contains(t, first, "a story")
}

func TestBuildUserPromptBriefUsesIdea(t *testing.T) {
	prompt, err := BuildUserPrompt(Brief(), "a lonely robot", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Idea: a lonely robot")
}

func TestBuildUserPromptMissingInput(t *testing.T) {
	_, err := BuildUserPrompt(Writer(), "idea", nil)
	require.Error(t, err)

	var merr *MisconfigurationError
	assert.ErrorAs(t, err, &merr)
}
