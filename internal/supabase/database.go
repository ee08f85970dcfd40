package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/models"
)

// DatabaseClient is the Relational Store backed by a direct postgres
// connection.
type DatabaseClient struct {
	db *sqlx.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sqlx.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an already opened connection.
func NewDatabaseClientFromDB(db *sql.DB, driverName string) *DatabaseClient {
	return &DatabaseClient{db: sqlx.NewDb(db, driverName)}
}

func (d *DatabaseClient) DB() *sql.DB {
	return d.db.DB
}

func (d *DatabaseClient) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	query, args, err := database.InsertProjectQuery(project)
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}

	var created models.Project
	if err := d.db.QueryRowxContext(ctx, query, args...).StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &created, nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.GetContext(ctx, &project,
		"SELECT "+database.ProjectColumns+" FROM projects WHERE id = $1", projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, error) {
	query, args, err := database.ListProjectsQuery(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing: %w", err)
	}

	projects := []models.Project{}
	if err := d.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (d *DatabaseClient) UpdateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	query, args, err := database.UpdateProjectQuery(project)
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	var updated models.Project
	err = d.db.QueryRowxContext(ctx, query, args...).StructScan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &updated, nil
}

func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("project not found")
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
