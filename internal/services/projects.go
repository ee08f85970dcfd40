package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

func (s *DreamService) ListProjects(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		return nil, apperror.Validation("invalid pagination", map[string]string{"offset": "must be a non-negative integer"})
	}
	filter.Search = strings.TrimSpace(filter.Search)

	projects, err := s.store.ListProjects(ctx, userID, filter)
	if err != nil {
		return nil, storeError("failed to list dreams", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// GetProject returns the project only to its owner.
func (s *DreamService) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, storeError("failed to get dream", err)
	}
	if project.UserID != userID {
		return nil, apperror.Forbidden("you do not have access to this dream")
	}
	return project, nil
}

// UpdateProject merges patch into the owner's project and bumps updatedAt.
func (s *DreamService) UpdateProject(ctx context.Context, userID, projectID uuid.UUID, patch models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(project, patch); err != nil {
		return nil, err
	}
	project.UpdatedAt = database.NextUpdatedAt(project.UpdatedAt)

	updated, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		return nil, storeError("failed to update dream", err)
	}
	s.logger.Info("dream updated", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	return updated, nil
}

// DeleteProject removes the owner's project row. Media objects are left in
// place since identical content may back other projects.
func (s *DreamService) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error {
	if _, err := s.GetProject(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return storeError("failed to delete dream", err)
	}
	s.logger.Info("dream deleted", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	return nil
}

func applyPatch(project *models.Project, patch models.UpdateProjectRequest) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return apperror.Validation("invalid update", map[string]string{"title": "must not be empty"})
		}
		project.Title = title
	}
	if patch.Content != nil {
		project.Content = *patch.Content
	}
	if patch.Story != nil {
		project.Story = *patch.Story
	}
	if patch.AnimationURL != nil {
		project.AnimationURL = nullable(*patch.AnimationURL)
	}
	if patch.AudioURL != nil {
		project.AudioURL = nullable(*patch.AudioURL)
	}
	if patch.Type != nil {
		if strings.TrimSpace(*patch.Type) == "" {
			return apperror.Validation("invalid update", map[string]string{"type": "must not be empty"})
		}
		project.Type = strings.TrimSpace(*patch.Type)
	}

	if len(patch.Metadata) > 0 {
		merged := project.Metadata.Clone()
		for key, raw := range patch.Metadata {
			if len(raw) == 0 || string(raw) == "null" {
				delete(merged, key)
				continue
			}
			var value interface{}
			if err := json.Unmarshal(raw, &value); err != nil {
				return apperror.Validation("invalid update", map[string]string{"metadata." + key: "must be valid JSON"})
			}
			merged[key] = value
		}
		project.Metadata = merged
	}
	return nil
}

// nullable maps an empty string onto a cleared column.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// storeError keeps taxonomy errors from the store and wraps anything else.
func storeError(message string, err error) error {
	if apperror.KindOf(err) != apperror.KindInternal {
		return err
	}
	return apperror.Internal(message, err)
}
