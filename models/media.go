package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaLink  MediaType = "link"
)

var MediaTypes = []MediaType{MediaImage, MediaVideo, MediaLink}

func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaLink:
		return true
	}
	return false
}

// MediaTypeFromContentType classifies an uploaded file by its declared content type.
// Only images and videos can be uploaded; links are always supplied by URL.
func MediaTypeFromContentType(contentType string) (MediaType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/") && len(ct) > len("image/"):
		return MediaImage, true
	case strings.HasPrefix(ct, "video/") && len(ct) > len("video/"):
		return MediaVideo, true
	}
	return "", false
}

// ProjectMedia is an image, video or external link attached to a project.
type ProjectMedia struct {
	ID          uuid.UUID `json:"media_id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_media_project_id"`
	MediaType   MediaType `json:"media_type" db:"media_type" gorm:"column:media_type;type:text;not null"`
	URL         string    `json:"url" db:"url" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" db:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;autoCreateTime"`
}

func (ProjectMedia) TableName() string { return "project_media" }

// MediaDescriptor is a media entry supplied by URL in a request body.
type MediaDescriptor struct {
	Type        MediaType `json:"type"`
	URL         string    `json:"url"`
	Description *string   `json:"description,omitempty"`
}

// Complete reports whether both type and URL are present. Incomplete descriptors are skipped, not rejected.
func (d MediaDescriptor) Complete() bool {
	return strings.TrimSpace(string(d.Type)) != "" && strings.TrimSpace(d.URL) != ""
}
