package models

import (
	"time"

	"github.com/google/uuid"
)

// Skill names are unique and case-sensitive.
type Skill struct {
	ID        uuid.UUID `json:"skill_id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;autoCreateTime"`
}

func (Skill) TableName() string { return "skills" }
