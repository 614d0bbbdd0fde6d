package contract

import (
	"encoding/json"

	"github.com/storycraft/storycraft/pkg/models"
)

func fptr(v float64) *float64 { return &v }

// Pipeline returns the five stage contracts in execution order:
// Brief -> Writer -> Visual -> Reviewer -> Publisher. Visual also consumes
// Brief; Reviewer consumes Writer and Visual; Publisher consumes everything.
func Pipeline() []StageContract {
	return []StageContract{Brief(), Writer(), Visual(), Reviewer(), Publisher()}
}

// ByAgent looks up a single contract from the fixed pipeline.
func ByAgent(agent models.Agent) (StageContract, bool) {
	for _, c := range Pipeline() {
		if c.Agent == agent {
			return c, true
		}
	}
	return StageContract{}, false
}

// Brief condenses the idea into a structured story brief.
func Brief() StageContract {
	return StageContract{
		Agent: models.AgentBrief,
		Kind:  KindJSON,
		Fields: []Field{
			{Name: "title", Type: FieldString},
			{Name: "logline", Type: FieldString},
			{Name: "themes", Type: FieldArray},
			{Name: "characters", Type: FieldArray},
			{Name: "setting", Type: FieldString},
			{Name: "tone", Type: FieldString},
			{Name: "target_audience", Type: FieldString},
			{Name: "key_scenes", Type: FieldArray},
		},
		System: "You are the Brief Agent. Given a short idea, produce a concise JSON brief " +
			"with fields: title, logline, themes (list), characters (list of {name, role, traits}), " +
			"setting, tone, target_audience, key_scenes (list). Only output valid JSON.",
		Fallback: json.RawMessage(`{"title":"Untitled Story","logline":"Brief unavailable.","themes":[],"characters":[],"setting":"","tone":"neutral","target_audience":"general","key_scenes":[]}`),
	}
}

// Writer turns the brief into the story text.
func Writer() StageContract {
	return StageContract{
		Agent:  models.AgentWriter,
		Kind:   KindText,
		MinLen: 400,
		MaxLen: 12000,
		System: "You are the Writer Agent. Turn the structured brief into a compelling short story " +
			"(~800-1200 words). Use vivid description and clear character voice. Output only the story text.",
		DependsOn: []models.Agent{models.AgentBrief},
		Fallback:  mustText("The full story could not be generated for this run. Please retry the pipeline to produce a complete draft. " + pad(400)),
	}
}

// Visual produces image-generation prompts for key scenes.
func Visual() StageContract {
	return StageContract{
		Agent: models.AgentVisual,
		Kind:  KindJSONArray,
		Fields: []Field{
			{Name: "id", Type: FieldAny},
			{Name: "scene_description", Type: FieldString},
			{Name: "camera", Type: FieldString},
			{Name: "lighting", Type: FieldString},
			{Name: "mood", Type: FieldString},
			{Name: "style", Type: FieldString},
		},
		System: "You are the Visual Agent. From the brief, produce 3 image-generation prompts for key scenes. " +
			"For each, include: id, scene_description, camera, lighting, mood, style (artistic references). " +
			"Output a JSON list only.",
		DependsOn: []models.Agent{models.AgentBrief},
		Fallback:  json.RawMessage(`[{"id":"fallback-1","scene_description":"Illustration unavailable for this run.","camera":"none","lighting":"none","mood":"neutral","style":"placeholder"}]`),
	}
}

// ReviewerVerdicts is the closed verdict set the reviewer must choose from.
var ReviewerVerdicts = []string{"Approved", "Needs Work", "Rejected"}

// Reviewer scores the story and visuals against the brief.
func Reviewer() StageContract {
	return StageContract{
		Agent: models.AgentReviewer,
		Kind:  KindJSON,
		Fields: []Field{
			{Name: "verdict", Type: FieldString, Enum: ReviewerVerdicts},
			{Name: "score", Type: FieldNumber, Min: fptr(0), Max: fptr(100)},
			{Name: "issues", Type: FieldArray},
			{Name: "recommendations", Type: FieldString},
			{Name: "summary", Type: FieldString},
		},
		System: "You are the Reviewer Agent. Evaluate the brief, story, and visuals. Produce strict JSON with: " +
			"verdict (Approved/Needs Work/Rejected), score (0-100), issues (list), recommendations (string), " +
			"summary (string). Output only JSON.",
		DependsOn: []models.Agent{models.AgentWriter, models.AgentVisual},
		Fallback:  json.RawMessage(`{"verdict":"Needs Work","score":0,"issues":["review unavailable"],"recommendations":"Re-run the pipeline to obtain a review.","summary":"Automated review could not be completed."}`),
	}
}

// Publisher assembles the final markdown document.
func Publisher() StageContract {
	return StageContract{
		Agent:  models.AgentPublisher,
		Kind:   KindText,
		MinLen: 1,
		MaxLen: 65536,
		System: "You are the Publisher Agent. Assemble a final polished Markdown story using the brief, story text, " +
			"visuals, and reviewer notes. Include image placeholders with labels and the visual prompts as captions. " +
			"Output only Markdown.",
		DependsOn: []models.Agent{models.AgentBrief, models.AgentWriter, models.AgentVisual, models.AgentReviewer},
		Fallback:  mustText("# Untitled Story\n\nThe published document could not be assembled for this run."),
	}
}

// mustText encodes a free-text fallback the same way Validate normalizes
// free-text output, so fallback payloads are always contract-shaped.
func mustText(s string) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}

// pad fills the writer fallback up to its minimum length band.
func pad(n int) string {
	const filler = "This placeholder text stands in for the story body. "
	out := ""
	for len(out) < n {
		out += filler
	}
	return out
}
