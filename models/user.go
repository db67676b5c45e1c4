package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember     Role = "member"
	RoleTeamLeader Role = "team_leader"
	RoleAdmin      Role = "admin"
)

// Moderators approve, reject and delete projects.
var ModeratorRoles = []Role{RoleTeamLeader, RoleAdmin}

// ContributorRoles may submit projects.
var ContributorRoles = []Role{RoleMember, RoleTeamLeader, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTeamLeader, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsModerator() bool {
	return r == RoleTeamLeader || r == RoleAdmin
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// User is the slice of the users table the portfolio core reads.
// Accounts themselves are managed by the auth service.
type User struct {
	ID        uuid.UUID `json:"user_id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	Email     string    `json:"email" db:"email" gorm:"type:text;not null;uniqueIndex"`
	Role      Role      `json:"role" db:"role" gorm:"type:text;not null;default:member"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

func (c Caller) IsZero() bool {
	return c.UserID == uuid.Nil
}
