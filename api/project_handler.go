package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/rpupo63/team-portfolio-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// projectService is the lifecycle API the handlers drive; *services.ProjectManager implements it.
type projectService interface {
	Create(ctx context.Context, caller models.Caller, in services.CreateProjectInput) (*models.Project, error)
	Update(ctx context.Context, caller models.Caller, id uuid.UUID, changes models.ProjectChanges) (*models.Project, error)
	Approve(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.TransitionResult, error)
	Reject(ctx context.Context, caller models.Caller, id uuid.UUID, reason string) (*models.TransitionResult, error)
	Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error
	ListPublic(ctx context.Context, filter models.ProjectFilter) (models.ProjectPage, error)
	ListPending(ctx context.Context, caller models.Caller, filter models.ProjectFilter) (models.ProjectPage, error)
	ListAll(ctx context.Context, caller models.Caller, filter models.ProjectFilter) (models.ProjectPage, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*models.ProjectDetail, error)
}

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	projects       projectService
	blobStore      services.BlobStore
	blobRemover    services.BlobRemover
	maxUploadBytes int64
}

func newProjectHandler(projects projectService, blobStore services.BlobStore, blobRemover services.BlobRemover, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		projects:       projects,
		blobStore:      blobStore,
		blobRemover:    blobRemover,
		maxUploadBytes: maxUploadBytes,
	}
}

// createProject submits a project for review
// @Summary Submit project
// @Description Creates a pending project owned by the caller. Accepts JSON, or multipart with a "data" JSON part (or plain fields), an optional "picture" file and "media_files".
// @Tags Projects
// @Accept json,mpfd
// @Produce json
// @Param project body CreateProjectRequest true "Project data"
// @Success 201 {object} CreateProjectResponse "Created project"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing name or invalid reference"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type - Upload is not an image or video"
// @Failure 500 {object} ErrorResponse "Internal Server Error"
// @Router /projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

		var form projectForm
		switch mediaType := requestMediaType(r); mediaType {
		case "", "application/json":
			if err := decodeJSON(r, &form.request, false); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		case "multipart/form-data":
			parsed, err := parseProjectForm(r)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			form = parsed
		default:
			h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(mediaType, []string{"application/json", "multipart/form-data"}))
			return
		}

		// Nothing is stored for a submission that is going to be rejected anyway.
		if form.request.Name == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		}

		stored, err := h.storeUploads(r.Context(), form)
		if err != nil {
			h.discardUploads(stored)
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Create(r.Context(), caller, services.CreateProjectInput{
			Name:         form.request.Name,
			Description:  form.request.Description,
			PictureURL:   stored.pictureURL,
			Participants: form.request.Participants,
			Skills:       form.request.Skills,
			Media:        append(form.request.Media, stored.media...),
		})
		if err != nil {
			h.discardUploads(stored)
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, CreateProjectResponse{
			ProjectID:  project.ID,
			PictureURL: project.PictureURL,
		})
	}
}

// updateProject edits a project
// @Summary Update project
// @Description Changes name, description and media. Allowed for the creator and moderators.
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param project body UpdateProjectRequest true "Changes"
// @Success 200 {object} ProjectResponse "Updated project"
// @Failure 400 {object} ErrorResponse "Bad Request - Blank name or invalid media"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the creator or a moderator"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())

		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req UpdateProjectRequest
		if err := decodeJSON(r, &req, false); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Update(r.Context(), caller, projectID, models.ProjectChanges{
			Name:        req.Name,
			Description: req.Description,
			AddMedia:    req.Media,
			RemoveMedia: req.RemoveMedia,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, ProjectResponse{
			Message:   "project updated",
			ProjectID: project.ID,
			Status:    project.Status,
		})
	}
}

// approveProject publishes a project
// @Summary Approve project
// @Tags Moderation
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} ProjectResponse "Approved"
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{projectID}/approve [put]
func (h projectHandler) approveProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())

		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.projects.Approve(r.Context(), caller, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, ProjectResponse{
			Message:   "project approved",
			ProjectID: result.ProjectID,
			Status:    result.Status,
		})
	}
}

// rejectProject hides a project
// @Summary Reject project
// @Tags Moderation
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param body body RejectProjectRequest false "Optional reason sent to the creator"
// @Success 200 {object} ProjectResponse "Rejected"
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{projectID}/reject [put]
func (h projectHandler) rejectProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())

		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req RejectProjectRequest
		if err := decodeJSON(r, &req, true); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.projects.Reject(r.Context(), caller, projectID, req.Reason)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, ProjectResponse{
			Message:   "project rejected",
			ProjectID: result.ProjectID,
			Status:    result.Status,
		})
	}
}

// deleteProject removes a project
// @Summary Delete project
// @Tags Moderation
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} MessageResponse "Deleted"
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())

		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projects.Delete(r.Context(), caller, projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, MessageResponse{Message: "project deleted"})
	}
}

// getPublicProjects lists the portfolio
// @Summary Portfolio
// @Description Approved projects, newest first. The unpaginated match count is in X-Total-Count.
// @Tags Projects
// @Produce json
// @Param member query string false "Participant user ID" format(uuid)
// @Param skill query string false "Case-insensitive partial skill name"
// @Param q query string false "Case-insensitive partial project name"
// @Param limit query int false "Page size (default 100, max 500)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.ProjectSummary
// @Router /projects/public [get]
func (h projectHandler) getPublicProjects() http.HandlerFunc {
	return h.listProjects(func(ctx context.Context, _ models.Caller, filter models.ProjectFilter) (models.ProjectPage, error) {
		return h.projects.ListPublic(ctx, filter)
	})
}

// getPendingProjects lists the moderation queue
// @Summary Pending queue
// @Tags Moderation
// @Produce json
// @Success 200 {array} models.ProjectSummary
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Router /projects/pending [get]
func (h projectHandler) getPendingProjects() http.HandlerFunc {
	return h.listProjects(h.projects.ListPending)
}

// getAllProjects lists projects in every status
// @Summary All projects
// @Tags Moderation
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} models.ProjectSummary
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Router /projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return h.listProjects(h.projects.ListAll)
}

type listFunc func(ctx context.Context, caller models.Caller, filter models.ProjectFilter) (models.ProjectPage, error)

func (h projectHandler) listProjects(list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := ctxGetCaller(r.Context())

		filter, err := parseProjectFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		page, err := list(r.Context(), caller, filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if page.Projects == nil {
			page.Projects = []models.ProjectSummary{}
		}
		w.Header().Set("X-Total-Count", strconv.FormatInt(page.Total, 10))
		h.responder.WriteJSON(w, page.Projects)
	}
}

// getPublicProject returns one approved project
// @Summary Public project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.ProjectDetail
// @Failure 404 {object} ErrorResponse "Not Found - Project not found or not approved"
// @Router /projects/public/{projectID} [get]
func (h projectHandler) getPublicProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		detail, err := h.projects.GetPublic(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, detail)
	}
}
