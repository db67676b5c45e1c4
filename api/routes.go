package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/team-portfolio-backend/models"
)

// setupPublicRoutes registers the endpoints that need no token
func setupPublicRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/health", handlers.healthHandler.getHealth())
	r.Get("/skills", handlers.skillHandler.getAllSkills())
	r.Get("/projects/public", handlers.projectHandler.getPublicProjects())
	r.Get("/projects/public/{projectID}", handlers.projectHandler.getPublicProject())
}

// setupAuthenticatedRoutes sets up all routes with authentication
func setupAuthenticatedRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)

		// Submission and editing. Edit rights are checked against the project itself.
		r.With(authMiddleware.requireRole(models.ContributorRoles...)).
			Post("/projects", handlers.projectHandler.createProject())
		r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())

		// Moderation
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireRole(models.ModeratorRoles...))

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Get("/projects/pending", handlers.projectHandler.getPendingProjects())
			r.Put("/projects/{projectID}/approve", handlers.projectHandler.approveProject())
			r.Put("/projects/{projectID}/reject", handlers.projectHandler.rejectProject())
			r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

			r.Delete("/users/{userID}", handlers.userHandler.deleteUser())
		})
	})
}
