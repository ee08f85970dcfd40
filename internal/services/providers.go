package services

import (
	"context"

	"github.com/google/uuid"
	"vision-board-backend/internal/models"
)

// TextProvider describes images, writes stories and narrates them.
type TextProvider interface {
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
	GenerateStory(ctx context.Context, dreamText, imageDescription string) (*models.StoryResult, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// AnimationProvider renders short videos. Both generate calls block until
// the clip is ready and return its URL.
type AnimationProvider interface {
	TextToVideo(ctx context.Context, prompt string, duration int) (string, error)
	ImageToVideo(ctx context.Context, imageURL string, duration int) (string, error)
	PredictionStatus(ctx context.Context, predictionID string) (*models.PredictionStatus, error)
}

// ProjectStore is the relational store for dream records. Lookups of unknown
// ids return an apperror of kind NotFound.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

// MediaStore holds uploaded images and generated audio.
type MediaStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
}

// Stager keeps uploads on local disk for the duration of a pipeline run.
type Stager interface {
	Save(userID uuid.UUID, originalName, mimeType string, data []byte) (*models.UploadedFile, error)
	Read(file *models.UploadedFile) ([]byte, error)
	Remove(file *models.UploadedFile) error
}
