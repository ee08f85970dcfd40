package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/models"
)

func TestGenerateStoryEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	auth := bearer(t, uuid.New())

	w := srv.doJSON(t, http.MethodPost, "/api/v1/story/generate", auth, map[string]string{"dreamText": "I flew"})
	require.Equal(t, http.StatusOK, w.Code)
	var data models.StoryData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, srv.text.Story, data.Story)
	assert.Equal(t, 30, data.Usage.TotalTokens)

	w = srv.doJSON(t, http.MethodPost, "/api/v1/story/generate", auth, map[string]string{"dreamText": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateStoryFromImageEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	auth := bearer(t, uuid.New())

	body, contentType := multipartBody(t, nil, formFile{field: "image", name: "a.jpg", data: jpegBytes})
	w := srv.do(t, http.MethodPost, "/api/v1/story/generate-from-image", auth, body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data models.StoryData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, srv.text.Description, data.ImageDescription)
	assert.NotEmpty(t, data.ImageURL)

	body, contentType = multipartBody(t, nil)
	w = srv.do(t, http.MethodPost, "/api/v1/story/generate-from-image", auth, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "image")
}

func TestGenerateAudioEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	w := srv.doJSON(t, http.MethodPost, "/api/v1/story/generate-audio", bearer(t, uuid.New()), map[string]string{"text": "read me"})

	require.Equal(t, http.StatusOK, w.Code)
	var data models.AudioData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "mp3", data.Format)
	assert.NotEmpty(t, data.AudioURL)
}

func TestAnimationFromTextEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	auth := bearer(t, uuid.New())

	w := srv.doJSON(t, http.MethodPost, "/api/v1/animation/generate-from-text", auth, map[string]interface{}{"prompt": "a purple ocean"})
	require.Equal(t, http.StatusOK, w.Code)
	var data models.AnimationData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, 3, data.Duration)
	assert.Equal(t, srv.animation.TextVideoURL, data.AnimationURL)

	w = srv.doJSON(t, http.MethodPost, "/api/v1/animation/generate-from-text", auth, map[string]interface{}{"prompt": "a purple ocean", "duration": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "duration")
}

func TestAnimationCombinedEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	auth := bearer(t, uuid.New())

	body, contentType := multipartBody(t, map[string]string{"prompt": "a purple ocean", "duration": "4"},
		formFile{field: "image", name: "a.png", data: jpegBytes})
	w := srv.do(t, http.MethodPost, "/api/v1/animation/generate-combined", auth, body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data models.AnimationData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, srv.animation.ImageVideoURL, data.AnimationURL)
	assert.Equal(t, 4, data.Duration)

	body, contentType = multipartBody(t, map[string]string{"duration": "x"})
	w = srv.do(t, http.MethodPost, "/api/v1/animation/generate-combined", auth, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictionStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	w := srv.do(t, http.MethodGet, "/api/v1/animation/status/pred-42", bearer(t, uuid.New()), nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var data models.PredictionStatus
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "pred-42", data.ID)
	assert.Equal(t, "succeeded", data.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	srv.do(t, http.MethodGet, "/health", "", nil, "")

	w := srv.do(t, http.MethodGet, "/metrics", "", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dreamcanvas_http_requests_total")
}
