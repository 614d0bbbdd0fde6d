// Package artifact assembles the final run document: the publisher's
// markdown, illustration placeholders for each visual prompt, a
// machine-readable summary, and an HTML rendering for export.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/storycraft/storycraft/pkg/models"
)

// Summary is the machine-readable companion to the rendered document.
type Summary struct {
	Idea      string               `json:"idea"`
	Stages    []models.StageResult `json:"stages"`
	Degraded  bool                 `json:"degraded"`
	FinalText string               `json:"final_text"`
}

type Document struct {
	Markdown string  `json:"markdown"`
	HTML     string  `json:"html"`
	Summary  Summary `json:"summary"`
}

// visualPrompt mirrors the fields the visual contract requires.
type visualPrompt struct {
	ID               any    `json:"id"`
	SceneDescription string `json:"scene_description"`
	Camera           string `json:"camera"`
	Lighting         string `json:"lighting"`
	Mood             string `json:"mood"`
	Style            string `json:"style"`
}

var renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Build assembles the document for a finished run. Works for aborted runs
// too: whatever stages completed are summarized, and the body falls back to
// an abort notice when the publisher never ran.
func Build(run *models.PipelineRun) (*Document, error) {
	body := run.FinalText
	if body == "" {
		if pub := run.StageFor(models.AgentPublisher); pub != nil {
			body = models.AsText(pub.Payload)
		} else {
			body = fmt.Sprintf("# Run %s\n\nThis run did not produce a published story.\n\nState: %s\n", run.ID, run.State)
			if run.AbortReason != "" {
				body += "\nReason: " + run.AbortReason + "\n"
			}
		}
	}

	md := body + illustrationSection(run)

	var html bytes.Buffer
	if err := renderer.Convert([]byte(md), &html); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return &Document{
		Markdown: md,
		HTML:     html.String(),
		Summary: Summary{
			Idea:      run.Idea,
			Stages:    run.Stages,
			Degraded:  run.Degraded,
			FinalText: body,
		},
	}, nil
}

// illustrationSection appends one placeholder block per visual prompt, with
// the prompt text as the caption an illustrator (or image model) would use.
func illustrationSection(run *models.PipelineRun) string {
	visual := run.StageFor(models.AgentVisual)
	if visual == nil {
		return ""
	}
	var prompts []visualPrompt
	if err := json.Unmarshal(visual.Payload, &prompts); err != nil || len(prompts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n## Illustrations\n")
	for i, p := range prompts {
		label := fmt.Sprintf("%v", p.ID)
		if label == "" || label == "<nil>" {
			label = fmt.Sprintf("scene-%d", i+1)
		}
		sb.WriteString(fmt.Sprintf("\n![%s](placeholder://%s)\n", label, label))
		sb.WriteString(fmt.Sprintf("\n*%s — %s, %s, %s, in the style of %s*\n",
			p.SceneDescription, p.Camera, p.Lighting, p.Mood, p.Style))
	}
	return sb.String()
}
