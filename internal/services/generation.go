package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/metrics"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/openai"
	"vision-board-backend/internal/upload"
)

// NormalizeDuration applies the default animation length and rejects values
// outside the supported range.
func NormalizeDuration(duration int) (int, error) {
	if duration == 0 {
		return DefaultAnimationDuration, nil
	}
	if duration < MinAnimationDuration || duration > MaxAnimationDuration {
		return 0, apperror.Validation("invalid duration", map[string]string{
			"duration": fmt.Sprintf("must be between %d and %d seconds", MinAnimationDuration, MaxAnimationDuration),
		})
	}
	return duration, nil
}

func (s *DreamService) GenerateStory(ctx context.Context, dreamText string) (*models.StoryData, error) {
	dreamText = strings.TrimSpace(dreamText)
	if dreamText == "" {
		return nil, apperror.Validation("dream text is required", map[string]string{"dreamText": "required"})
	}

	result, err := s.text.GenerateStory(ctx, dreamText, "")
	if err != nil {
		s.metrics.RecordStep(stepStory, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to generate story", err)
	}
	s.metrics.RecordStep(stepStory, metrics.OutcomeOK)
	return &models.StoryData{Story: result.Story, Usage: result.Usage}, nil
}

// GenerateStoryFromImage describes the image, writes a story from the
// description and stores the image.
func (s *DreamService) GenerateStoryFromImage(ctx context.Context, userID uuid.UUID, image models.ImageInput) (*models.StoryData, error) {
	file, data, err := s.stageOne(userID, image)
	if err != nil {
		return nil, err
	}
	defer s.removeStaged(file)

	description, err := s.text.DescribeImage(ctx, data, file.MimeType)
	if err != nil {
		s.metrics.RecordStep(stepDescribe, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to analyze image", err)
	}
	s.metrics.RecordStep(stepDescribe, metrics.OutcomeOK)

	result, err := s.text.GenerateStory(ctx, "", description)
	if err != nil {
		s.metrics.RecordStep(stepStory, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to generate story", err)
	}
	s.metrics.RecordStep(stepStory, metrics.OutcomeOK)

	imageURL, err := s.storeMedia(ctx, userID, "images", data, file.MimeType, upload.Extension(file.MimeType))
	if err != nil {
		return nil, apperror.Upstream("failed to store image", err)
	}

	return &models.StoryData{
		Story:            result.Story,
		Usage:            result.Usage,
		ImageDescription: description,
		ImageURL:         imageURL,
	}, nil
}

// GenerateAudio narrates text and returns the stored audio URL.
func (s *DreamService) GenerateAudio(ctx context.Context, userID uuid.UUID, text string) (*models.AudioData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("text is required", map[string]string{"text": "required"})
	}

	audio, err := s.text.SynthesizeSpeech(ctx, text)
	if err != nil {
		s.metrics.RecordStep(stepNarration, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to generate audio", err)
	}

	url, err := s.storeMedia(ctx, userID, "audio", audio, audioContentType, audioExtension)
	if err != nil {
		s.metrics.RecordStep(stepNarration, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to store audio", err)
	}
	s.metrics.RecordStep(stepNarration, metrics.OutcomeOK)
	return &models.AudioData{AudioURL: url, Format: openai.AudioFormat}, nil
}

func (s *DreamService) AnimateText(ctx context.Context, prompt string, duration int) (*models.AnimationData, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperror.Validation("prompt is required", map[string]string{"prompt": "required"})
	}
	duration, err := NormalizeDuration(duration)
	if err != nil {
		return nil, err
	}

	url, err := s.animation.TextToVideo(ctx, prompt, duration)
	if err != nil {
		s.metrics.RecordStep(stepAnimation, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to generate animation", err)
	}
	s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
	return &models.AnimationData{AnimationURL: url, Duration: duration}, nil
}

// AnimateImage stores the image and animates it.
func (s *DreamService) AnimateImage(ctx context.Context, userID uuid.UUID, image models.ImageInput, duration int) (*models.AnimationData, error) {
	duration, err := NormalizeDuration(duration)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.stageAndStore(ctx, userID, image)
	if err != nil {
		return nil, err
	}

	url, err := s.animation.ImageToVideo(ctx, imageURL, duration)
	if err != nil {
		s.metrics.RecordStep(stepAnimation, metrics.OutcomeFailed)
		return nil, apperror.Upstream("failed to generate video from image", err)
	}
	s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
	return &models.AnimationData{VideoURL: url, ImageURL: imageURL, Duration: duration}, nil
}

// AnimateCombined animates the image when one is given and falls back to the
// prompt when image animation fails or no image was sent.
func (s *DreamService) AnimateCombined(ctx context.Context, userID uuid.UUID, image *models.ImageInput, prompt string, duration int) (*models.AnimationData, error) {
	prompt = strings.TrimSpace(prompt)
	if image == nil && prompt == "" {
		return nil, apperror.Validation("prompt or image is required", map[string]string{"prompt": "required when no image is uploaded"})
	}
	duration, err := NormalizeDuration(duration)
	if err != nil {
		return nil, err
	}

	out := &models.AnimationData{Duration: duration}
	var lastErr error
	if image != nil {
		imageURL, err := s.stageAndStore(ctx, userID, *image)
		if err != nil {
			return nil, err
		}
		out.ImageURL = imageURL

		url, err := s.animation.ImageToVideo(ctx, imageURL, duration)
		if err == nil {
			s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
			out.AnimationURL = url
			return out, nil
		}
		lastErr = err
		s.logger.Warn("image animation failed, trying prompt", zap.Error(err))
	}

	if prompt != "" {
		url, err := s.animation.TextToVideo(ctx, prompt, duration)
		if err == nil {
			s.metrics.RecordStep(stepAnimation, metrics.OutcomeOK)
			out.AnimationURL = url
			return out, nil
		}
		lastErr = err
	}

	s.metrics.RecordStep(stepAnimation, metrics.OutcomeFailed)
	return nil, apperror.Upstream("failed to generate animation", lastErr)
}

func (s *DreamService) PredictionStatus(ctx context.Context, predictionID string) (*models.PredictionStatus, error) {
	predictionID = strings.TrimSpace(predictionID)
	if predictionID == "" {
		return nil, apperror.Validation("prediction id is required", map[string]string{"predictionId": "required"})
	}

	status, err := s.animation.PredictionStatus(ctx, predictionID)
	if err != nil {
		return nil, apperror.Upstream("failed to get prediction status", err)
	}
	return status, nil
}

func (s *DreamService) stageOne(userID uuid.UUID, image models.ImageInput) (*models.UploadedFile, []byte, error) {
	file, err := s.stager.Save(userID, image.Name, image.MimeType, image.Data)
	if err != nil {
		return nil, nil, apperror.Internal("failed to stage image", err)
	}
	data, err := s.stager.Read(file)
	if err != nil {
		s.removeStaged(file)
		return nil, nil, apperror.Internal("failed to stage image", err)
	}
	return file, data, nil
}

func (s *DreamService) stageAndStore(ctx context.Context, userID uuid.UUID, image models.ImageInput) (string, error) {
	file, data, err := s.stageOne(userID, image)
	if err != nil {
		return "", err
	}
	defer s.removeStaged(file)

	url, err := s.storeMedia(ctx, userID, "images", data, file.MimeType, upload.Extension(file.MimeType))
	if err != nil {
		return "", apperror.Upstream("failed to store image", err)
	}
	return url, nil
}
