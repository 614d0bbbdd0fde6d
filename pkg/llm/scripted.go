package llm

import (
	"context"
	"fmt"
	"sync"
)

type scripted struct {
	output string
	err    error
}

// ScriptedClient replays pre-programmed responses per agent, in order. Once
// an agent's script is exhausted the last entry repeats, which keeps
// "always fails" scenarios easy to express.
type ScriptedClient struct {
	mu      sync.Mutex
	scripts map[string][]scripted
	calls   map[string]int
}

func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{
		scripts: make(map[string][]scripted),
		calls:   make(map[string]int),
	}
}

// Script queues successful outputs for an agent.
func (c *ScriptedClient) Script(agent string, outputs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, out := range outputs {
		c.scripts[agent] = append(c.scripts[agent], scripted{output: out})
	}
}

// ScriptErr queues a failing call for an agent.
func (c *ScriptedClient) ScriptErr(agent string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[agent] = append(c.scripts[agent], scripted{err: err})
}

// Calls reports how many times an agent was invoked.
func (c *ScriptedClient) Calls(agent string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[agent]
}

func (c *ScriptedClient) Generate(_ context.Context, prompt Prompt) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[prompt.Agent]++
	script := c.scripts[prompt.Agent]
	if len(script) == 0 {
		return "", fmt.Errorf("no script for agent %q", prompt.Agent)
	}
	idx := c.calls[prompt.Agent] - 1
	if idx >= len(script) {
		idx = len(script) - 1
	}
	entry := script[idx]
	return entry.output, entry.err
}
