package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/rs/zerolog/log"
)

// ProjectStore persists projects and their relations.
type ProjectStore interface {
	Create(ctx context.Context, draft models.ProjectDraft) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, changes models.ProjectChanges, authorize func(models.Project) error) (*models.Project, error)
	Transition(ctx context.Context, id uuid.UUID, to models.ProjectStatus, from []models.ProjectStatus) (*models.TransitionResult, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.DeletedProject, error)
	List(ctx context.Context, filter models.ProjectFilter) (models.ProjectPage, error)
	FindDetail(ctx context.Context, id uuid.UUID, status *models.ProjectStatus) (*models.ProjectDetail, error)
	CountByStatus(ctx context.Context, status models.ProjectStatus) (int64, error)
}

// UserDirectory resolves contact details for notifications.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error)
}

// BlobRemover deletes stored files that no longer back any row.
type BlobRemover interface {
	Remove(urls ...string)
}

// ProjectManager owns the project lifecycle: creation, edits, moderation and deletion.
type ProjectManager struct {
	projects      ProjectStore
	users         UserDirectory
	notifier      Notifier
	blobs         BlobRemover
	notifyTimeout time.Duration
}

type ManagerOption func(*ProjectManager)

// WithNotifyTimeout bounds how long a moderation call waits on the mail provider.
func WithNotifyTimeout(d time.Duration) ManagerOption {
	return func(m *ProjectManager) {
		if d > 0 {
			m.notifyTimeout = d
		}
	}
}

// WithBlobRemover enables cleanup of stored files after a project is deleted.
func WithBlobRemover(r BlobRemover) ManagerOption {
	return func(m *ProjectManager) {
		m.blobs = r
	}
}

func NewProjectManager(projects ProjectStore, users UserDirectory, notifier Notifier, opts ...ManagerOption) *ProjectManager {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	m := &ProjectManager{
		projects:      projects,
		users:         users,
		notifier:      notifier,
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateProjectInput is a submission as received from a client.
// The picture has already been stored; only its URL is carried.
type CreateProjectInput struct {
	Name         string
	Description  *string
	PictureURL   *string
	Participants []uuid.UUID
	Skills       []string
	Media        []models.MediaDescriptor
}

// Create validates the submission and stores it as a pending project owned by caller.
func (m *ProjectManager) Create(ctx context.Context, caller models.Caller, in CreateProjectInput) (*models.Project, error) {
	if caller.IsZero() {
		return nil, errs.NewMissingRequiredFieldError("created_by")
	}
	if !caller.Role.In(models.ContributorRoles...) {
		return nil, errs.NewInsufficientRoleError(roleNames(models.ContributorRoles)...)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.NewMissingRequiredFieldError("name")
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}

	project, err := m.projects.Create(ctx, models.ProjectDraft{
		CreatedBy:    caller.UserID,
		Name:         name,
		Description:  trimmedOrNil(in.Description),
		PictureURL:   trimmedOrNil(in.PictureURL),
		Participants: in.Participants,
		Skills:       in.Skills,
		Media:        in.Media,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("projectId", project.ID.String()).
		Str("createdBy", caller.UserID.String()).
		Msg("project submitted for review")
	return project, nil
}

// Update edits name, description and media. Only the creator or a moderator may do so;
// the check runs against the locked row.
func (m *ProjectManager) Update(ctx context.Context, caller models.Caller, id uuid.UUID, changes models.ProjectChanges) (*models.Project, error) {
	if caller.IsZero() {
		return nil, errs.NewUnauthorizedError("caller identity required")
	}
	if changes.Name != nil && strings.TrimSpace(*changes.Name) == "" {
		return nil, errs.NewInvalidFieldError("name", "must not be empty")
	}
	if err := validateMedia(changes.AddMedia); err != nil {
		return nil, err
	}

	return m.projects.Update(ctx, id, changes, func(p models.Project) error {
		if p.CreatedBy == caller.UserID || caller.Role.IsModerator() {
			return nil
		}
		return errs.NewForbiddenError("only the creator or a moderator may edit a project")
	})
}

// Approve makes a project publicly visible and tells its creator.
func (m *ProjectManager) Approve(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.TransitionResult, error) {
	return m.moderate(ctx, caller, id, models.ActionApprove, "")
}

// Reject hides a project and tells its creator, quoting reason when one is given.
func (m *ProjectManager) Reject(ctx context.Context, caller models.Caller, id uuid.UUID, reason string) (*models.TransitionResult, error) {
	return m.moderate(ctx, caller, id, models.ActionReject, reason)
}

func (m *ProjectManager) moderate(ctx context.Context, caller models.Caller, id uuid.UUID, action models.ModerationAction, reason string) (*models.TransitionResult, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}
	to, from, err := models.Transition(action)
	if err != nil {
		return nil, errs.NewBadRequestError(err.Error())
	}

	result, err := m.projects.Transition(ctx, id, to, from)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("projectId", result.ProjectID.String()).
		Str("status", string(result.Status)).
		Str("moderator", caller.UserID.String()).
		Msg("project moderated")

	m.notifyCreator(ctx, *result, action, reason)
	return result, nil
}

// notifyCreator is best-effort: the status change already committed, so every failure here is only logged.
func (m *ProjectManager) notifyCreator(ctx context.Context, result models.TransitionResult, action models.ModerationAction, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
	defer cancel()

	logger := log.With().Str("projectId", result.ProjectID.String()).Str("action", string(action)).Logger()

	creator, err := m.users.FindByID(ctx, result.CreatedBy)
	if err != nil {
		logger.Warn().Err(err).Msg("could not look up project creator for notification")
		return
	}
	if creator.Email == "" {
		logger.Warn().Msg("project creator has no email address")
		return
	}

	msg := moderationMessage(result.Name, action, reason)
	if err := m.notifier.Send(ctx, creator.Email, msg.Subject, msg.Text, msg.HTML); err != nil {
		logger.Error().Err(err).Msg("failed to send moderation notification")
		return
	}
	logger.Debug().Msg("moderation notification sent")
}

// Delete removes a project with all of its links and media, then drops its stored files.
func (m *ProjectManager) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if err := requireModerator(caller); err != nil {
		return err
	}
	deleted, err := m.projects.Delete(ctx, id)
	if err != nil {
		return err
	}

	log.Info().Str("projectId", id.String()).Str("moderator", caller.UserID.String()).Msg("project deleted")

	if m.blobs != nil {
		m.blobs.Remove(deleted.BlobURLs()...)
	}
	return nil
}

// ListPublic returns approved projects only, whatever status the filter asks for.
func (m *ProjectManager) ListPublic(ctx context.Context, filter models.ProjectFilter) (models.ProjectPage, error) {
	approved := models.StatusApproved
	filter.Status = &approved
	return m.projects.List(ctx, filter)
}

// ListPending is the moderation queue.
func (m *ProjectManager) ListPending(ctx context.Context, caller models.Caller, filter models.ProjectFilter) (models.ProjectPage, error) {
	if err := requireModerator(caller); err != nil {
		return models.ProjectPage{}, err
	}
	pending := models.StatusPending
	filter.Status = &pending
	return m.projects.List(ctx, filter)
}

// ListAll returns projects in every status unless the filter narrows it.
func (m *ProjectManager) ListAll(ctx context.Context, caller models.Caller, filter models.ProjectFilter) (models.ProjectPage, error) {
	if err := requireModerator(caller); err != nil {
		return models.ProjectPage{}, err
	}
	return m.projects.List(ctx, filter)
}

// GetPublic returns an approved project. Pending and rejected projects are reported as not found.
func (m *ProjectManager) GetPublic(ctx context.Context, id uuid.UUID) (*models.ProjectDetail, error) {
	approved := models.StatusApproved
	return m.projects.FindDetail(ctx, id, &approved)
}

// SendPendingDigest tells every moderator how many projects await review.
// It returns the number of notifications delivered.
func (m *ProjectManager) SendPendingDigest(ctx context.Context) (int, error) {
	count, err := m.projects.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	moderators, err := m.users.FindByRoles(ctx, models.ModeratorRoles...)
	if err != nil {
		return 0, err
	}

	msg := digestMessage(count)
	sent := 0
	for _, moderator := range moderators {
		if moderator.Email == "" {
			continue
		}
		if err := m.notifier.Send(ctx, moderator.Email, msg.Subject, msg.Text, msg.HTML); err != nil {
			log.Error().Err(err).Str("userId", moderator.ID.String()).Msg("failed to send pending digest")
			continue
		}
		sent++
	}
	return sent, nil
}

// Helper functions

func requireModerator(caller models.Caller) error {
	if caller.IsZero() {
		return errs.NewUnauthorizedError("caller identity required")
	}
	if !caller.Role.IsModerator() {
		return errs.NewInsufficientRoleError(roleNames(models.ModeratorRoles)...)
	}
	return nil
}

func validateMedia(media []models.MediaDescriptor) error {
	for _, descriptor := range media {
		if descriptor.Complete() && !descriptor.Type.Valid() {
			return errs.NewInvalidFieldError("media.type", fmt.Sprintf("must be one of %v", models.MediaTypes))
		}
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func roleNames(roles []models.Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}
