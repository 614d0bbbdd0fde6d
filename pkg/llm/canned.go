package llm

import (
	"context"
	"fmt"
	"strings"
)

// CannedClient produces plausible contract-valid output without calling any
// provider. Used by the CLI's --mock flag for offline runs and demos.
type CannedClient struct{}

func (CannedClient) Generate(_ context.Context, prompt Prompt) (string, error) {
	switch prompt.Agent {
	case "brief":
		return `{
  "title": "A Canned Story",
  "logline": "A locally generated brief standing in for a model call.",
  "themes": ["offline", "placeholder"],
  "characters": [{"name": "Proto", "role": "protagonist", "traits": ["curious"]}],
  "setting": "a quiet development machine",
  "tone": "warm",
  "target_audience": "general",
  "key_scenes": ["an idea arrives", "the pipeline runs", "a document appears"]
}`, nil
	case "writer":
		var sb strings.Builder
		sb.WriteString("Proto woke to the hum of an idling machine and a single line of input waiting on the screen.\n\n")
		for i := 0; i < 12; i++ {
			sb.WriteString("The pipeline carried the idea forward, stage by stage, shaping it a little more each time it passed through another set of hands. ")
		}
		sb.WriteString("\n\nBy the end, the idea had become a story, and the story was ready to be published.")
		return sb.String(), nil
	case "visual":
		return `[
  {"id": "scene-1", "scene_description": "An idea arriving as a glowing line of text", "camera": "close-up", "lighting": "soft key light", "mood": "expectant", "style": "digital painting"},
  {"id": "scene-2", "scene_description": "Five stations passing a manuscript down a line", "camera": "wide shot", "lighting": "warm tungsten", "mood": "industrious", "style": "storybook illustration"},
  {"id": "scene-3", "scene_description": "A finished document glowing on a desk", "camera": "overhead", "lighting": "morning sun", "mood": "satisfied", "style": "watercolor"}
]`, nil
	case "reviewer":
		return `{"verdict": "Approved", "score": 82, "issues": [], "recommendations": "Ship it.", "summary": "A clean offline run with coherent output at every stage."}`, nil
	case "publisher":
		return "# A Canned Story\n\n*By the StoryCraft pipeline*\n\nProto woke to the hum of an idling machine. The idea moved through brief, draft, visuals, and review, and came out the other side as this document.\n\n![scene-1](placeholder://scene-1)\n\n*An idea arriving as a glowing line of text*\n", nil
	default:
		return "", fmt.Errorf("unknown agent %q", prompt.Agent)
	}
}
