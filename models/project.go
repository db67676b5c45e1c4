package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a user-submitted work item that stays hidden until a moderator approves it.
type Project struct {
	ID          uuid.UUID     `json:"project_id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name        string        `json:"name" db:"name" gorm:"type:text;not null"`
	Description *string       `json:"description,omitempty" db:"description" gorm:"type:text"`
	PictureURL  *string       `json:"picture_url,omitempty" db:"picture_url" gorm:"type:text"`
	Status      ProjectStatus `json:"status" db:"status" gorm:"type:text;not null;default:pending"`
	CreatedBy   uuid.UUID     `json:"created_by" db:"created_by" gorm:"type:uuid;not null;index:idx_projects_created_by"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;autoUpdateTime"`

	Creator      User                 `json:"-" gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:RESTRICT"`
	Participants []ProjectParticipant `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Skills       []ProjectSkill       `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Media        []ProjectMedia       `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string { return "projects" }

// ProjectParticipant links a user to a project. The pair is unique.
type ProjectParticipant struct {
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;primaryKey;index:idx_project_participants_user_id"`
}

func (ProjectParticipant) TableName() string { return "project_participants" }

// ProjectSkill links a skill to a project. The pair is unique.
type ProjectSkill struct {
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;primaryKey"`
	SkillID   uuid.UUID `json:"skill_id" db:"skill_id" gorm:"type:uuid;primaryKey;index:idx_project_skills_skill_id"`
}

func (ProjectSkill) TableName() string { return "project_skills" }

// ProjectDraft is everything needed to insert a project and its relations in one go.
type ProjectDraft struct {
	CreatedBy    uuid.UUID
	Name         string
	Description  *string
	PictureURL   *string
	Participants []uuid.UUID
	Skills       []string
	Media        []MediaDescriptor
}

// ProjectChanges is a partial update applied by the creator or a moderator.
// Nil fields are left untouched.
type ProjectChanges struct {
	Name        *string
	Description *string
	AddMedia    []MediaDescriptor
	RemoveMedia []uuid.UUID
}

// DeletedProject lists the blob URLs a removed project referenced.
type DeletedProject struct {
	ID         uuid.UUID
	PictureURL *string
	MediaURLs  []string
}

// BlobURLs returns every non-empty URL the project pointed at.
func (d DeletedProject) BlobURLs() []string {
	urls := make([]string, 0, len(d.MediaURLs)+1)
	if d.PictureURL != nil && *d.PictureURL != "" {
		urls = append(urls, *d.PictureURL)
	}
	for _, u := range d.MediaURLs {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
