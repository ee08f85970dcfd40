package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
)

const projectsTable = "projects"

// RESTClient is the Relational Store reached through the Supabase PostgREST
// API. Used when no direct DATABASE_URL is configured.
type RESTClient struct {
	client *supabase.Client
}

func NewRESTClient(client *supabase.Client) *RESTClient {
	return &RESTClient{client: client}
}

func (r *RESTClient) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	var rows []models.Project
	_, err := r.client.From(projectsTable).
		Insert(project, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create project: empty representation")
	}
	return &rows[0], nil
}

func (r *RESTClient) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var rows []models.Project
	_, err := r.client.From(projectsTable).
		Select("*", "", false).
		Eq("id", projectID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("project not found")
	}
	return &rows[0], nil
}

func (r *RESTClient) ListProjects(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, error) {
	query := r.client.From(projectsTable).
		Select("*", "", false).
		Eq("user_id", userID.String())

	if filter.Mood != "" {
		query = query.Eq("metadata->>mood", filter.Mood)
	}
	if filter.DreamType != "" {
		query = query.Eq("metadata->>dreamType", filter.DreamType)
	}
	if search := sanitizeSearch(filter.Search); search != "" {
		query = query.Or(fmt.Sprintf("title.ilike.*%[1]s*,content.ilike.*%[1]s*,story.ilike.*%[1]s*", search), "")
	}
	if filter.From != nil {
		query = query.Gte("created_at", filter.From.UTC().Format(time.RFC3339Nano))
	}
	if filter.To != nil {
		query = query.Lte("created_at", filter.To.UTC().Format(time.RFC3339Nano))
	}

	projects := []models.Project{}
	_, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: filter.Ascending}).
		Range(filter.Offset, filter.Offset+filter.Limit-1, "").
		ExecuteTo(&projects)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *RESTClient) UpdateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	changes := map[string]interface{}{
		"title":         project.Title,
		"content":       project.Content,
		"story":         project.Story,
		"animation_url": project.AnimationURL,
		"audio_url":     project.AudioURL,
		"type":          project.Type,
		"status":        project.Status,
		"metadata":      project.Metadata,
		"error_message": project.ErrorMessage,
		"updated_at":    project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	var rows []models.Project
	_, err := r.client.From(projectsTable).
		Update(changes, "representation", "").
		Eq("id", project.ID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("project not found")
	}
	return &rows[0], nil
}

func (r *RESTClient) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	var rows []models.Project
	_, err := r.client.From(projectsTable).
		Delete("representation", "").
		Eq("id", projectID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if len(rows) == 0 {
		return apperror.NotFound("project not found")
	}
	return nil
}

// sanitizeSearch strips characters that carry meaning in PostgREST filter
// syntax.
func sanitizeSearch(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '.', ':':
			return ' '
		}
		return r
	}, s))
}
