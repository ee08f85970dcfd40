package replicate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/replicate"
)

type fakeReplicate struct {
	polls    atomic.Int32
	final    string
	created  map[string]interface{}
	authSeen string
}

func (f *fakeReplicate) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.authSeen = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f.created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/pred-1":
			if f.polls.Add(1) < 2 {
				_, _ = w.Write([]byte(`{"id":"pred-1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(f.final))
		default:
			http.NotFound(w, r)
		}
	}
}

func newClient(server *httptest.Server) *replicate.Client {
	return replicate.NewClient(replicate.Options{
		BaseURL:           server.URL + "/",
		APIToken:          "r8_test",
		TextToVideoModel:  "lucataco/animate-diff:abc123",
		ImageToVideoModel: "stability-ai/stable-video-diffusion:def456",
		PollInterval:      10 * time.Millisecond,
	})
}

func TestTextToVideo(t *testing.T) {
	fake := &fakeReplicate{final: `{"id":"pred-1","status":"succeeded","output":["https://replicate.delivery/out.mp4"]}`}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	url, err := newClient(server).TextToVideo(context.Background(), "a purple ocean", 3)

	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/out.mp4", url)
	assert.Equal(t, "Bearer r8_test", fake.authSeen)
	assert.Equal(t, "abc123", fake.created["version"])
	input := fake.created["input"].(map[string]interface{})
	assert.Equal(t, "a purple ocean", input["prompt"])
	assert.Equal(t, float64(24), input["num_frames"])
	assert.GreaterOrEqual(t, fake.polls.Load(), int32(2))
}

func TestImageToVideo_StringOutput(t *testing.T) {
	fake := &fakeReplicate{final: `{"id":"pred-1","status":"succeeded","output":"https://replicate.delivery/svd.mp4"}`}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	url, err := newClient(server).ImageToVideo(context.Background(), "https://media.test/a.jpg", 3)

	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/svd.mp4", url)
	assert.Equal(t, "def456", fake.created["version"])
	input := fake.created["input"].(map[string]interface{})
	assert.Equal(t, "https://media.test/a.jpg", input["input_image"])
	assert.Equal(t, "14_frames_with_svd", input["video_length"])
	assert.Equal(t, float64(8), input["fps"])
	assert.NotContains(t, input, "frames_per_second")
	assert.NotContains(t, input, "sizing_strategy")
}

func TestTextToVideo_Failed(t *testing.T) {
	fake := &fakeReplicate{final: `{"id":"pred-1","status":"failed","error":"CUDA out of memory"}`}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	_, err := newClient(server).TextToVideo(context.Background(), "a purple ocean", 3)

	assert.ErrorContains(t, err, "CUDA out of memory")
}

func TestTextToVideo_SucceededWithoutOutput(t *testing.T) {
	fake := &fakeReplicate{final: `{"id":"pred-1","status":"succeeded","output":null}`}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	_, err := newClient(server).TextToVideo(context.Background(), "a purple ocean", 3)

	assert.ErrorContains(t, err, "without output")
}

func TestTextToVideo_ContextDone(t *testing.T) {
	fake := &fakeReplicate{final: `{"id":"pred-1","status":"processing"}`}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(server).TextToVideo(ctx, "a purple ocean", 3)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPredictionStatus_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer server.Close()

	_, err := newClient(server).PredictionStatus(context.Background(), "pred-1")

	assert.ErrorContains(t, err, "status 401")
}

func TestModelVersion(t *testing.T) {
	assert.Equal(t, "abc", replicate.ModelVersion("owner/name:abc"))
	assert.Equal(t, "abc", replicate.ModelVersion("abc"))
}
