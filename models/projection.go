package models

import (
	"time"

	"github.com/google/uuid"
)

// CreatorRef is the basic identity of a project's creator shown in listings.
type CreatorRef struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
}

type ParticipantRef struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// MediaByType groups media URLs. Every slice is non-nil so it encodes as [].
type MediaByType struct {
	Image []string `json:"image"`
	Video []string `json:"video"`
	Link  []string `json:"link"`
}

// ProjectSummary is the listing projection used by the portfolio feed and moderation queues.
type ProjectSummary struct {
	ProjectID   uuid.UUID     `json:"project_id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	PictureURL  *string       `json:"picture_url"`
	Status      ProjectStatus `json:"status"`
	CreatedBy   CreatorRef    `json:"created_by"`
	Skills      []string      `json:"skills"`
	Media       MediaByType   `json:"media"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectDetail is the public single-project projection.
type ProjectDetail struct {
	ProjectSummary
	Participants []ParticipantRef `json:"participants"`
	MediaItems   []MediaItem      `json:"media_items"`
}

type MediaItem struct {
	MediaID     uuid.UUID `json:"media_id"`
	MediaType   MediaType `json:"media_type"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectFilter narrows a listing. A nil Status means every status.
// Skill and Search are case-insensitive substring matches on a skill name and the project name.
type ProjectFilter struct {
	Status   *ProjectStatus
	MemberID *uuid.UUID
	Skill    string
	Search   string
	Limit    int
	Offset   int
}

// ProjectPage is one page of a listing plus the unpaginated match count.
type ProjectPage struct {
	Projects []ProjectSummary
	Total    int64
	Limit    int
	Offset   int
}

// TransitionResult is what a moderation update hands back for notifying the creator.
type TransitionResult struct {
	ProjectID uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	Status    ProjectStatus
}
