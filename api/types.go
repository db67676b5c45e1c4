package api

import (
	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	skillHandler   skillHandler
	userHandler    userHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Message string `json:"message" example:"project not found"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"name"`
	Details string `json:"details,omitempty" example:"Missing required field: name"`
	Error   string `json:"error,omitempty" example:"database query failed"`
}

// CreateProjectRequest is the JSON body (or multipart "data" part) of a submission.
// A status field, if sent, is ignored.
type CreateProjectRequest struct {
	Name         string                   `json:"name"`
	Description  *string                  `json:"description"`
	Participants []uuid.UUID              `json:"participants"`
	Skills       []string                 `json:"skills"`
	Media        []models.MediaDescriptor `json:"media"`
}

type CreateProjectResponse struct {
	ProjectID  uuid.UUID `json:"projectId"`
	PictureURL *string   `json:"picture_url"`
}

type UpdateProjectRequest struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Media       []models.MediaDescriptor `json:"media"`
	RemoveMedia []uuid.UUID              `json:"remove_media"`
}

type RejectProjectRequest struct {
	Reason string `json:"reason"`
}

// ProjectResponse is returned by update, approve and reject.
type ProjectResponse struct {
	Message   string               `json:"message"`
	ProjectID uuid.UUID            `json:"projectId"`
	Status    models.ProjectStatus `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
