package database

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"vision-board-backend/internal/models"
)

const ProjectColumns = "id, user_id, title, content, story, animation_url, audio_url, type, status, metadata, error_message, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListProjectsQuery builds the filtered, paginated listing for one owner.
func ListProjectsQuery(userID uuid.UUID, filter models.ProjectFilter) (string, []interface{}, error) {
	query := psql.Select(ProjectColumns).
		From("projects").
		Where(sq.Eq{"user_id": userID})

	if filter.Mood != "" {
		query = query.Where(sq.Expr("metadata->>'mood' = ?", filter.Mood))
	}
	if filter.DreamType != "" {
		query = query.Where(sq.Expr("metadata->>'dreamType' = ?", filter.DreamType))
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"content": pattern},
			sq.ILike{"story": pattern},
		})
	}
	if filter.From != nil {
		query = query.Where(sq.GtOrEq{"created_at": filter.From.UTC()})
	}
	if filter.To != nil {
		query = query.Where(sq.LtOrEq{"created_at": filter.To.UTC()})
	}

	order := "created_at DESC"
	if filter.Ascending {
		order = "created_at ASC"
	}
	query = query.OrderBy(order, "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	return query.ToSql()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern, using
// postgres' default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func InsertProjectQuery(p *models.Project) (string, []interface{}, error) {
	return psql.Insert("projects").
		Columns("id", "user_id", "title", "content", "story", "animation_url", "audio_url",
			"type", "status", "metadata", "error_message", "created_at", "updated_at").
		Values(p.ID, p.UserID, p.Title, p.Content, p.Story, p.AnimationURL, p.AudioURL,
			p.Type, p.Status, p.Metadata, p.ErrorMessage, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING " + ProjectColumns).
		ToSql()
}

// UpdateProjectQuery writes every mutable column of p.
func UpdateProjectQuery(p *models.Project) (string, []interface{}, error) {
	return psql.Update("projects").
		SetMap(map[string]interface{}{
			"title":         p.Title,
			"content":       p.Content,
			"story":         p.Story,
			"animation_url": p.AnimationURL,
			"audio_url":     p.AudioURL,
			"type":          p.Type,
			"status":        p.Status,
			"metadata":      p.Metadata,
			"error_message": p.ErrorMessage,
			"updated_at":    p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING " + ProjectColumns).
		ToSql()
}

// NextUpdatedAt returns a timestamp strictly after prev at the microsecond
// precision postgres stores.
func NextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
