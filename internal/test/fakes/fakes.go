// Package fakes holds in-memory providers and stores for tests.
package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
)

type StoryCall struct {
	DreamText        string
	ImageDescription string
}

// TextProvider records calls and returns canned results.
type TextProvider struct {
	mu sync.Mutex

	Description string
	DescribeErr error
	Story       string
	StoryErr    error
	Audio       []byte
	SpeechErr   error
	// StoryGate, when set, holds GenerateStory until it is closed.
	StoryGate chan struct{}

	DescribeCalls int
	StoryCalls    []StoryCall
	SpeechCalls   []string
}

func NewTextProvider() *TextProvider {
	return &TextProvider{
		Description: "a lighthouse on a violet shore",
		Story:       "Once upon a time the ocean turned purple.",
		Audio:       []byte("ID3-fake-mp3"),
	}
}

func (f *TextProvider) DescribeImage(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DescribeCalls++
	if f.DescribeErr != nil {
		return "", f.DescribeErr
	}
	return f.Description, nil
}

func (f *TextProvider) GenerateStory(ctx context.Context, dreamText, imageDescription string) (*models.StoryResult, error) {
	if f.StoryGate != nil {
		select {
		case <-f.StoryGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StoryCalls = append(f.StoryCalls, StoryCall{DreamText: dreamText, ImageDescription: imageDescription})
	if f.StoryErr != nil {
		return nil, f.StoryErr
	}
	return &models.StoryResult{
		Story: f.Story,
		Usage: models.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func (f *TextProvider) SynthesizeSpeech(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpeechCalls = append(f.SpeechCalls, text)
	if f.SpeechErr != nil {
		return nil, f.SpeechErr
	}
	return f.Audio, nil
}

// TotalCalls counts every provider call made so far.
func (f *TextProvider) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DescribeCalls + len(f.StoryCalls) + len(f.SpeechCalls)
}

// AnimationProvider records calls and returns canned clip URLs.
type AnimationProvider struct {
	mu sync.Mutex

	TextVideoURL  string
	TextErr       error
	ImageVideoURL string
	ImageErr      error
	Status        *models.PredictionStatus
	StatusErr     error

	TextPrompts []string
	ImageInputs []string
	Durations   []int
}

func NewAnimationProvider() *AnimationProvider {
	return &AnimationProvider{
		TextVideoURL:  "https://replicate.delivery/text.mp4",
		ImageVideoURL: "https://replicate.delivery/image.mp4",
		Status:        &models.PredictionStatus{ID: "pred-1", Status: "succeeded", Output: "https://replicate.delivery/out.mp4"},
	}
}

func (f *AnimationProvider) TextToVideo(_ context.Context, prompt string, duration int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextPrompts = append(f.TextPrompts, prompt)
	f.Durations = append(f.Durations, duration)
	if f.TextErr != nil {
		return "", f.TextErr
	}
	return f.TextVideoURL, nil
}

func (f *AnimationProvider) ImageToVideo(_ context.Context, imageURL string, duration int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ImageInputs = append(f.ImageInputs, imageURL)
	f.Durations = append(f.Durations, duration)
	if f.ImageErr != nil {
		return "", f.ImageErr
	}
	return f.ImageVideoURL, nil
}

func (f *AnimationProvider) PredictionStatus(_ context.Context, predictionID string) (*models.PredictionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	status := *f.Status
	status.ID = predictionID
	return &status, nil
}

func (f *AnimationProvider) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TextPrompts) + len(f.ImageInputs)
}

// ProjectStore keeps projects in memory.
type ProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project

	CreateErr error
	UpdateErr error
	Updated   chan models.Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[uuid.UUID]models.Project),
		Updated:  make(chan models.Project, 16),
	}
}

func (s *ProjectStore) CreateProject(_ context.Context, project *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	stored := *project
	stored.Metadata = project.Metadata.Clone()
	s.projects[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *ProjectStore) GetProject(_ context.Context, projectID uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return nil, apperror.NotFound("project not found")
	}
	project.Metadata = project.Metadata.Clone()
	return &project, nil
}

func (s *ProjectStore) ListProjects(_ context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Project{}
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset >= len(out) {
		return []models.Project{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *ProjectStore) UpdateProject(_ context.Context, project *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	if _, ok := s.projects[project.ID]; !ok {
		return nil, apperror.NotFound("project not found")
	}
	stored := *project
	stored.Metadata = project.Metadata.Clone()
	s.projects[stored.ID] = stored
	select {
	case s.Updated <- stored:
	default:
	}
	out := stored
	return &out, nil
}

func (s *ProjectStore) DeleteProject(_ context.Context, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return apperror.NotFound("project not found")
	}
	delete(s.projects, projectID)
	return nil
}

// Put stores project as is.
func (s *ProjectStore) Put(project models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project
}

func (s *ProjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects)
}

// MediaStore keeps uploaded objects in memory.
type MediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	UploadErr error
}

func NewMediaStore() *MediaStore {
	return &MediaStore{objects: make(map[string][]byte)}
}

func (m *MediaStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.objects[path] = append([]byte(nil), data...)
	return nil
}

func (m *MediaStore) PublicURL(path string) string {
	return "https://media.test/" + path
}

func (m *MediaStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
