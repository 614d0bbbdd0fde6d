package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycraft/storycraft/pkg/models"
)

const validBrief = `{
	"title": "A Lonely Robot",
	"logline": "A robot on Mars befriends a tiny alien.",
	"themes": ["friendship", "isolation"],
	"characters": [{"name": "R-7", "role": "protagonist", "traits": ["curious"]}],
	"setting": "Mars, near future",
	"tone": "hopeful",
	"target_audience": "all ages",
	"key_scenes": ["first contact", "dust storm", "farewell"]
}`

const validReview = `{
	"verdict": "Approved",
	"score": 88,
	"issues": [],
	"recommendations": "Tighten the middle act.",
	"summary": "A warm, well-paced story."
}`

const validVisuals = `[
	{"id": "scene-1", "scene_description": "A robot under a pink sky", "camera": "wide shot", "lighting": "dawn", "mood": "lonely", "style": "concept art"},
	{"id": "scene-2", "scene_description": "A tiny alien in a footprint", "camera": "macro", "lighting": "harsh noon", "mood": "curious", "style": "storybook"}
]`

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Kind
}

func TestValidateJSONRoundTrip(t *testing.T) {
	payload, err := Brief().Validate(validBrief)
	require.NoError(t, err)

	// The parsed payload equals the input: same document, byte for byte
	// after trimming.
	assert.JSONEq(t, validBrief, string(payload))
}

func TestValidateJSONMalformed(t *testing.T) {
	cases := []string{
		"",
		"not json at all",
		`{"title": "unterminated`,
		`[1, 2`,
	}
	for _, raw := range cases {
		_, err := Brief().Validate(raw)
		require.Error(t, err, "input %q", raw)
		assert.Equal(t, MalformedOutput, kindOf(t, err), "input %q", raw)
	}
}

func TestValidateJSONMissingField(t *testing.T) {
	_, err := Reviewer().Validate(`{"verdict": "Approved", "score": 50}`)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SchemaViolation, verr.Kind)
	assert.Equal(t, "issues", verr.Field)
}

func TestValidateJSONWrongType(t *testing.T) {
	bad := strings.Replace(validBrief, `["friendship", "isolation"]`, `"friendship"`, 1)
	_, err := Brief().Validate(bad)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SchemaViolation, verr.Kind)
	assert.Equal(t, "themes", verr.Field)
}

func TestValidateEnum(t *testing.T) {
	bad := strings.Replace(validReview, `"Approved"`, `"Meh"`, 1)
	_, err := Reviewer().Validate(bad)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SchemaViolation, verr.Kind)
	assert.Equal(t, "verdict", verr.Field)
}

func TestValidateNumberBounds(t *testing.T) {
	bad := strings.Replace(validReview, "88", "140", 1)
	_, err := Reviewer().Validate(bad)
	require.Error(t, err)
	assert.Equal(t, SchemaViolation, kindOf(t, err))

	negative := strings.Replace(validReview, "88", "-3", 1)
	_, err = Reviewer().Validate(negative)
	require.Error(t, err)
	assert.Equal(t, SchemaViolation, kindOf(t, err))
}

func TestValidateUnknownFieldsIgnored(t *testing.T) {
	extra := strings.TrimSuffix(strings.TrimSpace(validReview), "}") + `, "confidence": 0.9}`
	_, err := Reviewer().Validate(extra)
	assert.NoError(t, err)
}

func TestValidateArray(t *testing.T) {
	payload, err := Visual().Validate(validVisuals)
	require.NoError(t, err)
	assert.JSONEq(t, validVisuals, string(payload))

	_, err = Visual().Validate("[]")
	require.Error(t, err)
	assert.Equal(t, EmptyOutput, kindOf(t, err))

	_, err = Visual().Validate(`[{"id": 1, "scene_description": "x"}]`)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "[0].camera", verr.Field)
}

func TestValidateCodeFencedJSON(t *testing.T) {
	fenced := "```json\n" + validReview + "\n```"
	_, err := Reviewer().Validate(fenced)
	assert.NoError(t, err)
}

func TestValidateText(t *testing.T) {
	c := Writer()

	_, err := c.Validate("   \n\t ")
	require.Error(t, err)
	assert.Equal(t, EmptyOutput, kindOf(t, err))

	_, err = c.Validate("too short")
	require.Error(t, err)
	assert.Equal(t, LengthViolation, kindOf(t, err))

	story := strings.Repeat("The robot crossed the red plain. ", 40)
	payload, err := c.Validate(story)
	require.NoError(t, err)

	var decoded string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, strings.TrimSpace(story), decoded)
}

func TestValidateTextTooLong(t *testing.T) {
	c := Writer()
	_, err := c.Validate(strings.Repeat("a", c.MaxLen+1))
	require.Error(t, err)
	assert.Equal(t, LengthViolation, kindOf(t, err))
}

func TestValidateIdempotent(t *testing.T) {
	c := Reviewer()
	first, err1 := c.Validate(validReview)
	second, err2 := c.Validate(validReview)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	_, badErr1 := c.Validate("{broken")
	_, badErr2 := c.Validate("{broken")
	assert.Equal(t, kindOf(t, badErr1), kindOf(t, badErr2))
}

func TestValidationErrorsAreTransient(t *testing.T) {
	_, err := Brief().Validate("{broken")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Transient())
}

func TestMisconfiguredContract(t *testing.T) {
	c := StageContract{Agent: models.AgentBrief, Kind: KindJSON}
	err := c.Check()
	require.Error(t, err)

	var merr *MisconfigurationError
	require.True(t, errors.As(err, &merr))
	assert.False(t, merr.Transient())
}
