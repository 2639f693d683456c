package qa

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHuggingFaceChatModel_RequiresKey(t *testing.T) {
	_, err := NewHuggingFaceChatModel("  ", "", "")
	assert.Error(t, err)

	m, err := NewHuggingFaceChatModel("hf_key", "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.2", m.Endpoint())
}

func TestGenerate_SendsPayload(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotRecord map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRecord)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text": " Python and SQL. "}]`))
	}))
	defer server.Close()

	m, err := NewHuggingFaceChatModel("hf_key", "org/model", server.URL+"/models/")
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("What skills?")})
	require.NoError(t, err)
	assert.Equal(t, "Python and SQL.", msg.Content)
	assert.Equal(t, schema.Assistant, msg.Role)

	assert.Equal(t, "/models/org/model", gotPath)
	assert.Equal(t, "Bearer hf_key", gotAuth)
	assert.Equal(t, "What skills?", gotRecord["inputs"])
	params, ok := gotRecord["parameters"].(map[string]interface{})
	require.True(t, ok, "请求体应包含 parameters")
	assert.EqualValues(t, 200, params["max_new_tokens"])
	assert.InDelta(t, 0.7, params["temperature"], 1e-6)
	assert.Equal(t, false, params["return_full_text"])
}

func TestGenerate_CommonOptionsOverrideDefaults(t *testing.T) {
	var params map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Parameters map[string]interface{} `json:"parameters"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		params = payload.Parameters
		_, _ = w.Write([]byte(`"ok"`))
	}))
	defer server.Close()

	m, err := NewHuggingFaceChatModel("hf_key", "org/model", server.URL)
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")},
		model.WithMaxTokens(64), model.WithTemperature(0.2))
	require.NoError(t, err)
	assert.EqualValues(t, 64, params["max_new_tokens"])
	assert.InDelta(t, 0.2, params["temperature"], 1e-6)
}

func TestGenerate_ModelLoading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "Model is currently loading"}`))
	}))
	defer server.Close()

	m, err := NewHuggingFaceChatModel("hf_key", "org/model", server.URL)
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	assert.ErrorIs(t, err, ErrModelLoading)
	assert.ErrorIs(t, err, ErrInferenceUnavailable)
}

func TestGenerate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid credentials"}`))
	}))
	defer server.Close()

	m, err := NewHuggingFaceChatModel("bad", "org/model", server.URL)
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInferenceUnavailable)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerate_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	m, err := NewHuggingFaceChatModel("hf_key", "org/model", server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = m.Generate(ctx, []*schema.Message{schema.UserMessage("q")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrInferenceUnavailable)
}

func TestStream_SingleChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generated_text": "streamed"}`))
	}))
	defer server.Close()

	m, err := NewHuggingFaceChatModel("hf_key", "org/model", server.URL)
	require.NoError(t, err)

	reader, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.NoError(t, err)
	defer reader.Close()

	chunk, err := reader.Recv()
	require.NoError(t, err)
	assert.Equal(t, "streamed", chunk.Content)

	_, err = reader.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
