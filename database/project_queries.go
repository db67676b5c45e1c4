package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"gorm.io/datatypes"
)

const projectColumns = `
	p.id AS project_id, p.name, p.description, p.picture_url, p.status, p.created_at, p.updated_at,
	u.id AS creator_id, u.name AS creator_name, u.avatar_url AS creator_avatar_url,
	sk.skills`

const projectJoins = `
FROM projects p
JOIN users u ON u.id = p.created_by
LEFT JOIN LATERAL (
	SELECT COALESCE(json_agg(DISTINCT s.name ORDER BY s.name), '[]'::json) AS skills
	FROM project_skills ps
	JOIN skills s ON s.id = ps.skill_id
	WHERE ps.project_id = p.id
) sk ON TRUE`

const mediaByTypeJoin = `
LEFT JOIN LATERAL (
	SELECT
		COALESCE(json_agg(m.url ORDER BY m.created_at, m.id) FILTER (WHERE m.media_type = 'image'), '[]'::json) AS images,
		COALESCE(json_agg(m.url ORDER BY m.created_at, m.id) FILTER (WHERE m.media_type = 'video'), '[]'::json) AS videos,
		COALESCE(json_agg(m.url ORDER BY m.created_at, m.id) FILTER (WHERE m.media_type = 'link'), '[]'::json) AS links
	FROM project_media m
	WHERE m.project_id = p.id
) md ON TRUE`

const detailJoins = `
LEFT JOIN LATERAL (
	SELECT COALESCE(json_agg(json_build_object('user_id', pu.id, 'name', pu.name) ORDER BY pu.name, pu.id), '[]'::json) AS participants
	FROM project_participants pp
	JOIN users pu ON pu.id = pp.user_id
	WHERE pp.project_id = p.id
) pt ON TRUE
LEFT JOIN LATERAL (
	SELECT COALESCE(json_agg(json_build_object(
		'media_id', m.id,
		'media_type', m.media_type,
		'url', m.url,
		'description', m.description,
		'created_at', m.created_at
	) ORDER BY m.created_at, m.id), '[]'::json) AS media_items
	FROM project_media m
	WHERE m.project_id = p.id
) mi ON TRUE`

type projectRow struct {
	ProjectID        uuid.UUID            `gorm:"column:project_id"`
	Name             string               `gorm:"column:name"`
	Description      *string              `gorm:"column:description"`
	PictureURL       *string              `gorm:"column:picture_url"`
	Status           models.ProjectStatus `gorm:"column:status"`
	CreatedAt        time.Time            `gorm:"column:created_at"`
	UpdatedAt        time.Time            `gorm:"column:updated_at"`
	CreatorID        uuid.UUID            `gorm:"column:creator_id"`
	CreatorName      string               `gorm:"column:creator_name"`
	CreatorAvatarURL *string              `gorm:"column:creator_avatar_url"`
	Skills           datatypes.JSONSlice[string]
	Images           datatypes.JSONSlice[string]
	Videos           datatypes.JSONSlice[string]
	Links            datatypes.JSONSlice[string]
	TotalCount       int64 `gorm:"column:total_count"`

	// detail only
	Participants datatypes.JSONSlice[models.ParticipantRef]
	MediaItems   datatypes.JSONSlice[models.MediaItem]
}

func (row projectRow) summary() models.ProjectSummary {
	return models.ProjectSummary{
		ProjectID:   row.ProjectID,
		Name:        row.Name,
		Description: row.Description,
		PictureURL:  row.PictureURL,
		Status:      row.Status,
		CreatedBy: models.CreatorRef{
			UserID:    row.CreatorID,
			Name:      row.CreatorName,
			AvatarURL: row.CreatorAvatarURL,
		},
		Skills: orEmpty(row.Skills),
		Media: models.MediaByType{
			Image: orEmpty(row.Images),
			Video: orEmpty(row.Videos),
			Link:  orEmpty(row.Links),
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// List returns one page of project summaries, newest first, and the number of projects matching filter.
func (r *ProjectRepo) List(ctx context.Context, filter models.ProjectFilter) (models.ProjectPage, error) {
	limit := validateLimit(filter.Limit, defaultLimit, maxLimit)
	offset := validateOffset(filter.Offset)

	qb := buildProjectFilter(filter)
	query := fmt.Sprintf(`SELECT %s,
	md.images, md.videos, md.links,
	COUNT(*) OVER() AS total_count
%s
%s
%s
ORDER BY p.created_at DESC, p.id
LIMIT ? OFFSET ?`, projectColumns, projectJoins, mediaByTypeJoin, qb.WhereClause())

	args := append(qb.Args(), limit, offset)

	rows := []projectRow{}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return models.ProjectPage{}, errs.NewDatabaseError("list", "projects", err)
	}

	page := models.ProjectPage{
		Projects: make([]models.ProjectSummary, 0, len(rows)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, row := range rows {
		page.Projects = append(page.Projects, row.summary())
	}

	if len(rows) > 0 {
		page.Total = rows[0].TotalCount
		return page, nil
	}
	if offset == 0 {
		return page, nil
	}

	// Paged past the end; the window count has no row to ride on.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM projects p %s", qb.WhereClause())
	if err := r.db.WithContext(ctx).Raw(countQuery, qb.Args()...).Scan(&page.Total).Error; err != nil {
		return models.ProjectPage{}, errs.NewDatabaseError("count", "projects", err)
	}
	return page, nil
}

// FindDetail returns a single project with participants and media items.
// When status is set, a project in any other status is reported as not found.
func (r *ProjectRepo) FindDetail(ctx context.Context, id uuid.UUID, status *models.ProjectStatus) (*models.ProjectDetail, error) {
	qb := NewQueryBuilder()
	qb.AddCondition("p.id", id)
	if status != nil {
		qb.AddCondition("p.status", string(*status))
	}

	query := fmt.Sprintf(`SELECT %s,
	pt.participants, mi.media_items
%s
%s
%s`, projectColumns, projectJoins, detailJoins, qb.WhereClause())

	rows := []projectRow{}
	if err := r.db.WithContext(ctx).Raw(query, qb.Args()...).Scan(&rows).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	if len(rows) == 0 {
		return nil, errs.NewNotFound("project")
	}

	row := rows[0]
	detail := models.ProjectDetail{
		ProjectSummary: row.summary(),
		Participants:   orEmpty(row.Participants),
		MediaItems:     orEmpty(row.MediaItems),
	}
	for _, item := range detail.MediaItems {
		switch item.MediaType {
		case models.MediaImage:
			detail.Media.Image = append(detail.Media.Image, item.URL)
		case models.MediaVideo:
			detail.Media.Video = append(detail.Media.Video, item.URL)
		case models.MediaLink:
			detail.Media.Link = append(detail.Media.Link, item.URL)
		}
	}
	return &detail, nil
}

func buildProjectFilter(filter models.ProjectFilter) *QueryBuilder {
	qb := NewQueryBuilder()
	if filter.Status != nil {
		qb.AddCondition("p.status", string(*filter.Status))
	}
	if filter.MemberID != nil {
		qb.AddExpr(`EXISTS (SELECT 1 FROM project_participants fpp WHERE fpp.project_id = p.id AND fpp.user_id = ?)`, *filter.MemberID)
	}
	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		qb.AddExpr(`EXISTS (
	SELECT 1 FROM project_skills fps
	JOIN skills fs ON fs.id = fps.skill_id
	WHERE fps.project_id = p.id AND fs.name ILIKE ?)`, containsPattern(skill))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		qb.AddContains("p.name", search)
	}
	return qb
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
