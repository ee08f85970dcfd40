package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/supabase"
	"vision-board-backend/internal/upload"
)

const (
	DefaultAnimationDuration = 3
	MinAnimationDuration     = 1
	MaxAnimationDuration     = 10

	audioContentType = "audio/mpeg"
	audioExtension   = ".mp3"

	stepStage     = "stage"
	stepDescribe  = "describe"
	stepStory     = "story"
	stepUpload    = "upload"
	stepAnimation = "animation"
	stepNarration = "narration"
	stepPersist   = "persist"
)

type Options struct {
	PipelineTimeout time.Duration
}

// DreamService turns dream submissions into persisted projects and exposes
// the individual generation steps.
type DreamService struct {
	text      TextProvider
	animation AnimationProvider
	store     ProjectStore
	media     MediaStore
	stager    Stager
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      Options

	inflight sync.WaitGroup
}

func NewDreamService(
	text TextProvider,
	animation AnimationProvider,
	store ProjectStore,
	media MediaStore,
	stager Stager,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *DreamService {
	if opts.PipelineTimeout <= 0 {
		opts.PipelineTimeout = 5 * time.Minute
	}
	return &DreamService{
		text:      text,
		animation: animation,
		store:     store,
		media:     media,
		stager:    stager,
		metrics:   m,
		logger:    logger.Named("dreams"),
		opts:      opts,
	}
}

// artifacts is what one pipeline run produces.
type artifacts struct {
	story        string
	usage        models.TokenUsage
	descriptions []string
	imageURLs    []string
	animationURL *string
	audioURL     *string
}

type stagedImage struct {
	file *models.UploadedFile
	data []byte
}

// SubmitDream runs the pipeline for sub. In synchronous mode the completed
// project is returned once every step has run. In async mode a pending
// project is returned at once and updated to completed or failed later.
func (s *DreamService) SubmitDream(ctx context.Context, sub models.DreamSubmission, async bool) (*models.Project, error) {
	if async {
		return s.submitAsync(ctx, sub)
	}

	// The pipeline outlives a disconnected client but not the timeout.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PipelineTimeout)
	defer cancel()
	return s.ProcessDream(runCtx, sub)
}

// ProcessDream validates sub, generates its artifacts and inserts a completed
// project. Nothing is persisted when the story cannot be generated.
func (s *DreamService) ProcessDream(ctx context.Context, sub models.DreamSubmission) (*models.Project, error) {
	if err := validateSubmission(&sub); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.runPipeline(ctx, sub)
	if err != nil {
		s.metrics.RecordPipeline(metrics.OutcomeFailed, time.Since(start))
		return nil, err
	}

	project := newProject(sub, models.StatusCompleted)
	applyArtifacts(project, sub, out)

	created, err := s.store.CreateProject(ctx, project)
	if err != nil {
		s.metrics.RecordStep(stepPersist, metrics.OutcomeFailed)
		s.metrics.RecordPipeline(metrics.OutcomeFailed, time.Since(start))
		s.logger.Error("failed to save dream", zap.String("user_id", sub.UserID.String()), zap.Error(err))
		return nil, apperror.Internal("failed to save dream", err)
	}
	s.metrics.RecordStep(stepPersist, metrics.OutcomeOK)
	s.metrics.RecordPipeline(metrics.OutcomeOK, time.Since(start))

	s.logger.Info("dream processed",
		zap.String("project_id", created.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.Bool("animation", created.AnimationURL != nil),
		zap.Bool("audio", created.AudioURL != nil),
		zap.Duration("took", time.Since(start)),
	)
	return created, nil
}

func (s *DreamService) submitAsync(ctx context.Context, sub models.DreamSubmission) (*models.Project, error) {
	if err := validateSubmission(&sub); err != nil {
		return nil, err
	}

	pending, err := s.store.CreateProject(ctx, newProject(sub, models.StatusPending))
	if err != nil {
		return nil, apperror.Internal("failed to save dream", err)
	}

	s.inflight.Add(1)
	go func(project models.Project) {
		defer s.inflight.Done()

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PipelineTimeout)
		defer cancel()
		s.finishAsync(runCtx, sub, &project)
	}(*pending)

	return pending, nil
}

func (s *DreamService) finishAsync(ctx context.Context, sub models.DreamSubmission, pending *models.Project) {
	start := time.Now()
	logger := s.logger.With(zap.String("project_id", pending.ID.String()), zap.String("user_id", sub.UserID.String()))

	out, runErr := s.runPipeline(ctx, sub)
	if runErr != nil {
		s.metrics.RecordPipeline(metrics.OutcomeFailed, time.Since(start))
		logger.Error("dream pipeline failed", zap.Error(runErr))
	} else {
		s.metrics.RecordPipeline(metrics.OutcomeOK, time.Since(start))
	}

	// Persist even after a timeout so the row never stays pending.
	persistCtx := context.WithoutCancel(ctx)

	// The owner may have edited or deleted the row while it was pending.
	project, err := s.store.GetProject(persistCtx, pending.ID)
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		logger.Info("dream deleted before the pipeline finished")
		return
	case err != nil:
		logger.Warn("failed to reload pending dream", zap.Error(err))
		project = pending
	}

	if runErr != nil {
		project.Status = models.StatusFailed
		project.ErrorMessage = models.StringPtr(apperror.As(runErr).Message)
	} else {
		project.Status = models.StatusCompleted
		project.ErrorMessage = nil
		applyArtifacts(project, sub, out)
	}
	project.UpdatedAt = database.NextUpdatedAt(project.UpdatedAt)

	if _, err := s.store.UpdateProject(persistCtx, project); err != nil {
		s.metrics.RecordStep(stepPersist, metrics.OutcomeFailed)
		logger.Error("failed to record dream outcome", zap.String("status", project.Status), zap.Error(err))
		return
	}
	s.metrics.RecordStep(stepPersist, metrics.OutcomeOK)
	logger.Info("dream processed", zap.String("status", project.Status), zap.Duration("took", time.Since(start)))
}

// Shutdown waits for background pipelines until ctx is done.
func (s *DreamService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DreamService) runPipeline(ctx context.Context, sub models.DreamSubmission) (*artifacts, error) {
	staged := s.stageImages(sub)
	defer s.cleanup(staged)

	out := &artifacts{}
	for _, img := range staged {
		description, err := s.text.DescribeImage(ctx, img.data, img.file.MimeType)
		if err != nil || strings.TrimSpace(description) == "" {
			s.metrics.RecordStep(stepDescribe, metrics.OutcomeFailed)
			s.logger.Warn("image description failed", zap.String("file", img.file.StoredName), zap.Error(err))
			continue
		}
		s.metrics.RecordStep(stepDescribe, metrics.OutcomeOK)
		out.descriptions = append(out.descriptions, description)
	}

	result, err := s.text.GenerateStory(ctx, sub.Text, strings.Join(out.descriptions, ". "))
	if err != nil {
		s.metrics.RecordStep(stepStory, metrics.OutcomeFailed)
		s.logger.Error("story generation failed", zap.String("user_id", sub.UserID.String()), zap.Error(err))
		return nil, apperror.Upstream("failed to generate story", err)
	}
	s.metrics.RecordStep(stepStory, metrics.OutcomeOK)
	out.story = result.Story
	out.usage = result.Usage

	for _, img := range staged {
		url, err := s.storeMedia(ctx, sub.UserID, "images", img.data, img.file.MimeType, upload.Extension(img.file.MimeType))
		if err != nil {
			s.metrics.RecordStep(stepUpload, metrics.OutcomeFailed)
			s.logger.Warn("image upload failed", zap.String("file", img.file.StoredName), zap.Error(err))
			continue
		}
		s.metrics.RecordStep(stepUpload, metrics.OutcomeOK)
		out.imageURLs = append(out.imageURLs, url)
	}

	out.animationURL = s.animate(ctx, sub.Text, out.imageURLs, out.descriptions)

	if sub.Narrate {
		out.audioURL = s.narrate(ctx, sub.UserID, out.story)
	} else {
		s.metrics.RecordStep(stepNarration, metrics.OutcomeSkipped)
	}

	return out, nil
}

// stageImages writes each image to the staging area and reads it back. An
// image that cannot be staged is dropped.
func (s *DreamService) stageImages(sub models.DreamSubmission) []stagedImage {
	staged := make([]stagedImage, 0, len(sub.Images))
	for _, img := range sub.Images {
		file, err := s.stager.Save(sub.UserID, img.Name, img.MimeType, img.Data)
		if err != nil {
			s.metrics.RecordStep(stepStage, metrics.OutcomeFailed)
			s.logger.Warn("failed to stage image", zap.String("name", img.Name), zap.Error(err))
			continue
		}
		data, err := s.stager.Read(file)
		if err != nil {
			s.metrics.RecordStep(stepStage, metrics.OutcomeFailed)
			s.logger.Warn("failed to read staged image", zap.String("file", file.StoredName), zap.Error(err))
			s.removeStaged(file)
			continue
		}
		s.metrics.RecordStep(stepStage, metrics.OutcomeOK)
		staged = append(staged, stagedImage{file: file, data: data})
	}
	return staged
}

func (s *DreamService) cleanup(staged []stagedImage) {
	for _, img := range staged {
		s.removeStaged(img.file)
	}
}

func (s *DreamService) removeStaged(file *models.UploadedFile) {
	if err := s.stager.Remove(file); err != nil {
		s.logger.Warn("failed to remove staged file", zap.String("file", file.StoredName), zap.Error(err))
	}
}

// animate prefers image-to-video from the first stored image and falls back
// to text-to-video. It returns nil when no clip could be produced.
func (s *DreamService) animate(ctx context.Context, text string, imageURLs, descriptions []string) *string {
	prompt := strings.TrimSpace(text)
	if prompt == "" && len(descriptions) > 0 {
		prompt = descriptions[0]
	}

	if len(imageURLs) > 0 {
		url, err := s.animation.ImageToVideo(ctx, imageURLs[0], DefaultAnimationDuration)
		if err == nil {
			s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
			return &url
		}
		s.logger.Warn("image animation failed", zap.Error(err))
	}

	if prompt == "" {
		s.metrics.RecordStep(stepAnimation, metrics.OutcomeSkipped)
		return nil
	}

	url, err := s.animation.TextToVideo(ctx, prompt, DefaultAnimationDuration)
	if err != nil {
		s.metrics.RecordStep(stepAnimation, metrics.OutcomeFailed)
		s.logger.Warn("text animation failed", zap.Error(err))
		return nil
	}
	s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
	return &url
}

func (s *DreamService) narrate(ctx context.Context, userID uuid.UUID, story string) *string {
	audio, err := s.text.SynthesizeSpeech(ctx, story)
	if err != nil {
		s.metrics.RecordStep(stepNarration, metrics.OutcomeFailed)
		s.logger.Warn("narration failed", zap.Error(err))
		return nil
	}

	url, err := s.storeMedia(ctx, userID, "audio", audio, audioContentType, audioExtension)
	if err != nil {
		s.metrics.RecordStep(stepNarration, metrics.OutcomeFailed)
		s.logger.Warn("failed to store narration", zap.Error(err))
		return nil
	}
	s.metrics.RecordStep(stepNarration, metrics.OutcomeOK)
	return &url
}

func (s *DreamService) storeMedia(ctx context.Context, userID uuid.UUID, kind string, data []byte, contentType, ext string) (string, error) {
	path := supabase.MediaPath(userID, kind, data, ext)
	if err := s.media.Upload(ctx, path, data, contentType); err != nil {
		return "", err
	}
	return s.media.PublicURL(path), nil
}

func validateSubmission(sub *models.DreamSubmission) error {
	sub.Text = strings.TrimSpace(sub.Text)
	sub.Title = strings.TrimSpace(sub.Title)
	if sub.UserID == uuid.Nil {
		return apperror.Unauthorized("user id not found")
	}
	if sub.Text == "" && len(sub.Images) == 0 {
		return apperror.Validation("dream text or at least one image is required", map[string]string{
			"dreamText": "required when no images are uploaded",
		})
	}
	return nil
}

func newProject(sub models.DreamSubmission, status string) *models.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	title := sub.Title
	if title == "" {
		title = models.DefaultTitle
	}
	metadata := sub.Metadata.Clone()
	metadata["imageCount"] = len(sub.Images)

	return &models.Project{
		ID:        uuid.New(),
		UserID:    sub.UserID,
		Title:     title,
		Content:   sub.Text,
		Type:      models.ProjectTypeDream,
		Status:    status,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func applyArtifacts(project *models.Project, sub models.DreamSubmission, out *artifacts) {
	project.Story = out.story
	project.AnimationURL = out.animationURL
	project.AudioURL = out.audioURL

	metadata := project.Metadata.Clone()
	if len(out.descriptions) > 0 {
		metadata["imageDescriptions"] = out.descriptions
	}
	if len(out.imageURLs) > 0 {
		metadata["imageUrls"] = out.imageURLs
	}
	metadata["usage"] = out.usage
	metadata["narrated"] = sub.Narrate
	project.Metadata = metadata
}
