package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillRepo struct {
	db *gorm.DB
}

func NewSkillRepo(db *gorm.DB) *SkillRepo {
	return &SkillRepo{db}
}

// FindAll returns every skill ordered by name
func (r *SkillRepo) FindAll(ctx context.Context) ([]models.Skill, error) {
	skills := []models.Skill{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&skills).Error
	return skills, err
}

// ensure returns the skill called name inside tx, creating it if needed.
// Two transactions racing on the same new name both end up with the one row
// the unique index lets through.
func (r *SkillRepo) ensure(tx *gorm.DB, name string) (models.Skill, error) {
	var skill models.Skill
	res := tx.Where("name = ?", name).Limit(1).Find(&skill)
	if res.Error != nil {
		return skill, fmt.Errorf("find skill %q: %w", name, res.Error)
	}
	if res.RowsAffected > 0 {
		return skill, nil
	}

	skill = models.Skill{ID: uuid.New(), Name: name}
	res = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&skill)
	if res.Error != nil {
		return skill, fmt.Errorf("insert skill %q: %w", name, res.Error)
	}
	if res.RowsAffected > 0 {
		return skill, nil
	}

	// Lost the race; the other writer's row is committed by now.
	skill = models.Skill{}
	if err := tx.Where("name = ?", name).Take(&skill).Error; err != nil {
		return skill, fmt.Errorf("reload skill %q: %w", name, err)
	}
	return skill, nil
}

// normalizeSkills trims names, drops blanks and exact duplicates, and sorts the rest
// so concurrent writers take skill row locks in the same order.
func normalizeSkills(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
