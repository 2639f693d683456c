package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGeneration_KnownShapes(t *testing.T) {
	cases := map[string]string{
		`[{"generated_text": "  The candidate knows Go.  "}]`: "The candidate knows Go.",
		`[{"text": "From text field"}]`:                       "From text field",
		`["plain list answer"]`:                               "plain list answer",
		`"bare string answer"`:                                "bare string answer",
		`{"generated_text": "object answer"}`:                 "object answer",
	}
	for body, expected := range cases {
		text, err := decodeGeneration([]byte(body))
		require.NoError(t, err, "响应 %s", body)
		assert.Equal(t, expected, text, "响应 %s", body)
	}
}

func TestDecodeGeneration_Unrecognized(t *testing.T) {
	bodies := []string{
		`[]`,
		`[{"score": 0.9}]`,
		`[42]`,
		`{"foo": "bar"}`,
		`42`,
		`null`,
		`"   "`,
		`not json`,
	}
	for _, body := range bodies {
		_, err := decodeGeneration([]byte(body))
		require.Error(t, err, "响应 %s 应无法识别", body)
		assert.ErrorIs(t, err, ErrUnrecognizedResponse, "响应 %s", body)
		assert.ErrorIs(t, err, ErrInferenceUnavailable, "响应 %s", body)
	}
}

func TestDecodeGeneration_ErrorObject(t *testing.T) {
	_, err := decodeGeneration([]byte(`{"error": "Model mistralai/x is currently loading", "estimated_time": 20}`))
	assert.ErrorIs(t, err, ErrModelLoading)
	assert.ErrorIs(t, err, ErrInferenceUnavailable)

	_, err = decodeGeneration([]byte(`{"error": "Authorization header is invalid"}`))
	assert.ErrorIs(t, err, ErrInferenceUnavailable)
	assert.NotErrorIs(t, err, ErrModelLoading)
	assert.Contains(t, err.Error(), "Authorization header is invalid")
}
