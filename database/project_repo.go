package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type ProjectRepo struct {
	db     *gorm.DB
	skills *SkillRepo
}

func NewProjectRepo(db *gorm.DB, skills *SkillRepo) *ProjectRepo {
	return &ProjectRepo{db: db, skills: skills}
}

// Create inserts a pending project with its participants, skills and media in one transaction.
// The creator is always linked as a participant. Media descriptors without a type or URL are skipped.
func (r *ProjectRepo) Create(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	project := models.Project{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(draft.Name),
		Description: draft.Description,
		PictureURL:  draft.PictureURL,
		Status:      models.StatusPending,
		CreatedBy:   draft.CreatedBy,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		participants := append([]uuid.UUID{draft.CreatedBy}, draft.Participants...)
		for _, userID := range participants {
			if userID == uuid.Nil {
				continue
			}
			if err := linkParticipant(tx, project.ID, userID); err != nil {
				return err
			}
		}

		for _, name := range normalizeSkills(draft.Skills) {
			skill, err := r.skills.ensure(tx, name)
			if err != nil {
				return err
			}
			if err := linkSkill(tx, project.ID, skill.ID); err != nil {
				return err
			}
		}

		return addMedia(tx, project.ID, draft.Media)
	})
	if err != nil {
		return nil, errs.NewDatabaseError("create", "project", err)
	}
	return &project, nil
}

// Update applies changes under a row lock. authorize sees the locked row and may veto the change.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, changes models.ProjectChanges, authorize func(models.Project) error) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Limit(1).Find(&project)
		if res.Error != nil {
			return fmt.Errorf("lock project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}
		if authorize != nil {
			if err := authorize(project); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"updated_at": gorm.Expr("NOW()")}
		if changes.Name != nil {
			updates["name"] = strings.TrimSpace(*changes.Name)
		}
		if changes.Description != nil {
			if strings.TrimSpace(*changes.Description) == "" {
				updates["description"] = gorm.Expr("NULL")
			} else {
				updates["description"] = *changes.Description
			}
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update project: %w", err)
		}

		if len(changes.RemoveMedia) > 0 {
			err := tx.Where("project_id = ? AND id IN ?", id, changes.RemoveMedia).Delete(&models.ProjectMedia{}).Error
			if err != nil {
				return fmt.Errorf("remove media: %w", err)
			}
		}
		if err := addMedia(tx, id, changes.AddMedia); err != nil {
			return err
		}

		return tx.Where("id = ?", id).Take(&project).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}
	return &project, nil
}

type transitionRow struct {
	ID        uuid.UUID            `gorm:"column:id"`
	Name      string               `gorm:"column:name"`
	CreatedBy uuid.UUID            `gorm:"column:created_by"`
	Status    models.ProjectStatus `gorm:"column:status"`
}

// Transition moves a project to status to, provided its current status is one of from.
// The check and the write are a single statement, so concurrent moderators cannot
// interleave between them.
func (r *ProjectRepo) Transition(ctx context.Context, id uuid.UUID, to models.ProjectStatus, from []models.ProjectStatus) (*models.TransitionResult, error) {
	allowed := make([]string, len(from))
	for i, status := range from {
		allowed[i] = string(status)
	}

	var rows []transitionRow
	err := r.db.WithContext(ctx).Raw(
		`UPDATE projects SET status = ?, updated_at = NOW()
		 WHERE id = ? AND status IN ?
		 RETURNING id, name, created_by, status`,
		string(to), id, allowed,
	).Scan(&rows).Error
	if err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}

	if len(rows) == 0 {
		var current models.Project
		res := r.db.WithContext(ctx).Clauses(dbresolver.Write).
			Select("id", "status").Where("id = ?", id).Limit(1).Find(&current)
		if res.Error != nil {
			return nil, errs.NewDatabaseError("find", "project", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, errs.NewNotFound("project")
		}
		return nil, errs.NewInvalidTransitionError("project", string(current.Status), string(to))
	}

	row := rows[0]
	return &models.TransitionResult{
		ProjectID: row.ID,
		Name:      row.Name,
		CreatedBy: row.CreatedBy,
		Status:    row.Status,
	}, nil
}

// Delete removes a project; participants, skill links and media rows cascade with it.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) (*models.DeletedProject, error) {
	deleted := models.DeletedProject{ID: id}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectMedia{}).Where("project_id = ?", id).Pluck("url", &deleted.MediaURLs).Error; err != nil {
			return fmt.Errorf("list media: %w", err)
		}

		var rows []struct {
			PictureURL *string `gorm:"column:picture_url"`
		}
		if err := tx.Raw(`DELETE FROM projects WHERE id = ? RETURNING picture_url`, id).Scan(&rows).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if len(rows) == 0 {
			return errs.NewNotFound("project")
		}
		deleted.PictureURL = rows[0].PictureURL
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("delete", "project", err)
	}
	return &deleted, nil
}

// CountByStatus returns how many projects are currently in status.
func (r *ProjectRepo) CountByStatus(ctx context.Context, status models.ProjectStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("status = ?", string(status)).Count(&count).Error
	if err != nil {
		return 0, errs.NewDatabaseError("count", "projects", err)
	}
	return count, nil
}

// Helper functions

func linkParticipant(tx *gorm.DB, projectID, userID uuid.UUID) error {
	link := models.ProjectParticipant{ProjectID: projectID, UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("link participant %s: %w", userID, err)
	}
	return nil
}

func linkSkill(tx *gorm.DB, projectID, skillID uuid.UUID) error {
	link := models.ProjectSkill{ProjectID: projectID, SkillID: skillID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("link skill %s: %w", skillID, err)
	}
	return nil
}

func addMedia(tx *gorm.DB, projectID uuid.UUID, media []models.MediaDescriptor) error {
	for _, descriptor := range media {
		if !descriptor.Complete() {
			continue
		}
		if !descriptor.Type.Valid() {
			return errs.NewInvalidFieldError("media.type", fmt.Sprintf("must be one of %v", models.MediaTypes))
		}
		item := models.ProjectMedia{
			ID:          uuid.New(),
			ProjectID:   projectID,
			MediaType:   descriptor.Type,
			URL:         strings.TrimSpace(descriptor.URL),
			Description: descriptor.Description,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
	}
	return nil
}
