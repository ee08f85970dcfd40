package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/openai"
)

func chatResponse(content string) string {
	payload := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newServer(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return openai.NewClient(openai.Options{
		APIKey:      "sk-test",
		BaseURL:     server.URL + "/v1/",
		Model:       "gpt-4o",
		VisionModel: "gpt-4o-mini",
		MaxTokens:   800,
		Temperature: 0.8,
		TTSModel:    "tts-1",
		TTSVoice:    "nova",
	})
}

func TestGenerateStory(t *testing.T) {
	var request map[string]interface{}
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse("  Once upon a purple tide.  ")))
	})

	result, err := client.GenerateStory(context.Background(), "I flew over the ocean", "a lighthouse")

	require.NoError(t, err)
	assert.Equal(t, "Once upon a purple tide.", result.Story)
	assert.Equal(t, 46, result.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o", request["model"])
	messages := request["messages"].([]interface{})
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	assert.Contains(t, user["content"], "I flew over the ocean")
	assert.Contains(t, user["content"], "a lighthouse")
}

func TestGenerateStory_EmptyCompletion(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse("   ")))
	})

	_, err := client.GenerateStory(context.Background(), "I flew", "")

	assert.ErrorContains(t, err, "empty completion")
}

func TestGenerateStory_APIError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	})

	_, err := client.GenerateStory(context.Background(), "I flew", "")

	assert.ErrorContains(t, err, "Rate limit reached")
}

func TestDescribeImage(t *testing.T) {
	var body string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var request map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		encoded, _ := json.Marshal(request)
		body = string(encoded)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse("A violet shore.")))
	})

	description, err := client.DescribeImage(context.Background(), []byte{0xFF, 0xD8, 0xFF}, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "A violet shore.", description)
	assert.Contains(t, body, "gpt-4o-mini")
	assert.Contains(t, body, "data:image/jpeg;base64,/9j/")
}

func TestSynthesizeSpeech(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var request map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "nova", request["voice"])
		assert.Equal(t, "mp3", request["response_format"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	})

	audio, err := client.SynthesizeSpeech(context.Background(), "Once upon a time")

	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), audio)
}

func TestBuildStoryPrompt(t *testing.T) {
	withText := openai.BuildStoryPrompt("I flew", "")
	assert.Contains(t, withText, `"I flew"`)
	assert.NotContains(t, withText, "uploaded images")

	imageOnly := openai.BuildStoryPrompt("", "a lighthouse")
	assert.Contains(t, imageOnly, `"a lighthouse"`)
	assert.Contains(t, imageOnly, "2-3 paragraphs")
}
