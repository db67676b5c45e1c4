package api

import (
	"context"
	"time"

	"github.com/rpupo63/team-portfolio-backend/services"
)

// Dependencies are the collaborators the HTTP surface drives.
type Dependencies struct {
	Projects    projectService
	Skills      skillLister
	Users       userDeleter
	BlobStore   services.BlobStore
	BlobRemover services.BlobRemover
	Verifier    TokenVerifier
	Ping        func(ctx context.Context) error
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, maxUploadBytes int64, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(deps.Projects, deps.BlobStore, deps.BlobRemover, maxUploadBytes),
		skillHandler:   newSkillHandler(deps.Skills),
		userHandler:    newUserHandler(deps.Users),
		healthHandler:  newHealthHandler(deps.Ping, startupTime),
	}
}
