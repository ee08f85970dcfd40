package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"vision-board-backend/internal/handlers"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/middleware"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/staging"
	"vision-board-backend/internal/test/fakes"
	"vision-board-backend/internal/upload"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)

type testServer struct {
	router     *gin.Engine
	service    *services.DreamService
	text       *fakes.TextProvider
	animation  *fakes.AnimationProvider
	store      *fakes.ProjectStore
	media      *fakes.MediaStore
	metrics    *metrics.Metrics
	stagingDir string
}

func newTestServer(t *testing.T, showDetail bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	area, err := staging.NewArea(dir)
	require.NoError(t, err)

	srv := &testServer{
		text:       fakes.NewTextProvider(),
		animation:  fakes.NewAnimationProvider(),
		store:      fakes.NewProjectStore(),
		media:      fakes.NewMediaStore(),
		metrics:    metrics.New(),
		stagingDir: dir,
	}
	srv.service = services.NewDreamService(srv.text, srv.animation, srv.store, srv.media, area,
		srv.metrics, zap.NewNop(), services.Options{PipelineTimeout: 5 * time.Second})
	t.Cleanup(func() { _ = srv.service.Shutdown(context.Background()) })

	srv.router = handlers.NewRouter(handlers.RouterOptions{
		Service:    srv.service,
		Policy:     upload.NewPolicy(1<<20, 5, []string{"image/jpeg", "image/png"}),
		Verifier:   middleware.NewJWTVerifier(testSecret),
		Metrics:    srv.metrics,
		Logger:     zap.NewNop(),
		ShowDetail: showDetail,
	})
	return srv
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return bearerExpiring(t, userID, time.Now().Add(time.Hour))
}

func bearerExpiring(t *testing.T, userID uuid.UUID, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (s *testServer) do(t *testing.T, method, path, auth string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, path, auth string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, auth, body, "application/json")
}

func (s *testServer) stagedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.stagingDir)
	require.NoError(t, err)
	return entries
}

type formFile struct {
	field string
	name  string
	data  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      json.RawMessage   `json:"data"`
	Errors    map[string]string `json:"errors"`
	Timestamp string            `json:"timestamp"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeProject(t *testing.T, env envelope) models.Project {
	t.Helper()
	var data struct {
		Project models.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Project
}

func seedProject(srv *testServer, owner uuid.UUID) models.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	project := models.Project{
		ID:        uuid.New(),
		UserID:    owner,
		Title:     "Flying",
		Content:   "I flew",
		Story:     "A story",
		Type:      models.ProjectTypeDream,
		Status:    models.StatusCompleted,
		Metadata:  models.Metadata{"mood": "joyful"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	srv.store.Put(project)
	return project
}
