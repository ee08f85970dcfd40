package supabase_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/supabase"
)

var projectColumns = []string{"id", "user_id", "title", "content", "story", "animation_url", "audio_url",
	"type", "status", "metadata", "error_message", "created_at", "updated_at"}

func newMockClient(t *testing.T) (*supabase.DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return supabase.NewDatabaseClientFromDB(db, "postgres"), mock
}

func projectRow(p models.Project) *sqlmock.Rows {
	return sqlmock.NewRows(projectColumns).AddRow(
		p.ID.String(), p.UserID.String(), p.Title, p.Content, p.Story, nil, nil,
		p.Type, p.Status, []byte(`{"mood":"joyful"}`), nil, p.CreatedAt, p.UpdatedAt,
	)
}

func sampleProject() models.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.Project{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Title:     "Flying",
		Content:   "I flew",
		Story:     "A story",
		Type:      models.ProjectTypeDream,
		Status:    models.StatusCompleted,
		Metadata:  models.Metadata{"mood": "joyful"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDatabaseClient_CreateProject(t *testing.T) {
	client, mock := newMockClient(t)
	project := sampleProject()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).WillReturnRows(projectRow(project))

	created, err := client.CreateProject(context.Background(), &project)

	require.NoError(t, err)
	assert.Equal(t, project.ID, created.ID)
	assert.Equal(t, "joyful", created.Metadata["mood"])
	assert.Nil(t, created.AnimationURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_GetProject(t *testing.T) {
	client, mock := newMockClient(t)
	project := sampleProject()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + database.ProjectColumns + " FROM projects WHERE id = $1")).
		WithArgs(project.ID).
		WillReturnRows(projectRow(project))

	got, err := client.GetProject(context.Background(), project.ID)

	require.NoError(t, err)
	assert.Equal(t, project.UserID, got.UserID)
	assert.Equal(t, "Flying", got.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_GetProjectNotFound(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(projectColumns))

	_, err := client.GetProject(context.Background(), uuid.New())

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDatabaseClient_ListProjects(t *testing.T) {
	client, mock := newMockClient(t)
	project := sampleProject()

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE user_id = $1 AND metadata->>'mood' = $2")).
		WithArgs(project.UserID, "joyful").
		WillReturnRows(projectRow(project))

	projects, err := client.ListProjects(context.Background(), project.UserID, models.ProjectFilter{Limit: 10, Mood: "joyful"})

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, project.ID, projects[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_UpdateProjectNotFound(t *testing.T) {
	client, mock := newMockClient(t)
	project := sampleProject()

	mock.ExpectQuery("UPDATE projects").WillReturnRows(sqlmock.NewRows(projectColumns))

	_, err := client.UpdateProject(context.Background(), &project)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDatabaseClient_DeleteProject(t *testing.T) {
	client, mock := newMockClient(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, client.DeleteProject(context.Background(), id))
	err := client.DeleteProject(context.Background(), id)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
