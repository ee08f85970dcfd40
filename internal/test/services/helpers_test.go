package services_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/staging"
	"vision-board-backend/internal/test/fakes"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)

type testEnv struct {
	service    *services.DreamService
	text       *fakes.TextProvider
	animation  *fakes.AnimationProvider
	store      *fakes.ProjectStore
	media      *fakes.MediaStore
	metrics    *metrics.Metrics
	logs       *observer.ObservedLogs
	stagingDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	area, err := staging.NewArea(dir)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	env := &testEnv{
		text:       fakes.NewTextProvider(),
		animation:  fakes.NewAnimationProvider(),
		store:      fakes.NewProjectStore(),
		media:      fakes.NewMediaStore(),
		metrics:    metrics.New(),
		logs:       logs,
		stagingDir: dir,
	}
	env.service = services.NewDreamService(env.text, env.animation, env.store, env.media, area,
		env.metrics, zap.New(core), services.Options{PipelineTimeout: 5 * time.Second})
	return env
}

func (e *testEnv) stagedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.stagingDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func jpegImage(name string) models.ImageInput {
	return models.ImageInput{Name: name, MimeType: "image/jpeg", Data: jpegBytes}
}

func seedProject(env *testEnv, owner uuid.UUID) models.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	project := models.Project{
		ID:        uuid.New(),
		UserID:    owner,
		Title:     "Flying",
		Content:   "I flew",
		Story:     "A story",
		Type:      models.ProjectTypeDream,
		Status:    models.StatusCompleted,
		Metadata:  models.Metadata{"mood": "joyful", "tags": []interface{}{"sky"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	env.store.Put(project)
	return project
}
