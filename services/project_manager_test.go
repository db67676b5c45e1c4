package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjectStore struct {
	mu          sync.Mutex
	projects    map[uuid.UUID]*models.Project
	drafts      []models.ProjectDraft
	lastFilter  models.ProjectFilter
	lastStatus  *models.ProjectStatus
	deleted     *models.DeletedProject
	transitions int
	pending     int64
	createErr   error
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: map[uuid.UUID]*models.Project{}}
}

func (f *fakeProjectStore) add(createdBy uuid.UUID, name string, status models.ProjectStatus) *models.Project {
	p := &models.Project{ID: uuid.New(), Name: name, CreatedBy: createdBy, Status: status}
	f.projects[p.ID] = p
	return p
}

func (f *fakeProjectStore) Create(_ context.Context, draft models.ProjectDraft) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.drafts = append(f.drafts, draft)
	p := &models.Project{
		ID:          uuid.New(),
		Name:        draft.Name,
		Description: draft.Description,
		PictureURL:  draft.PictureURL,
		Status:      models.StatusPending,
		CreatedBy:   draft.CreatedBy,
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeProjectStore) Update(_ context.Context, id uuid.UUID, changes models.ProjectChanges, authorize func(models.Project) error) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	if err := authorize(*p); err != nil {
		return nil, err
	}
	if changes.Name != nil {
		p.Name = *changes.Name
	}
	return p, nil
}

func (f *fakeProjectStore) Transition(_ context.Context, id uuid.UUID, to models.ProjectStatus, from []models.ProjectStatus) (*models.TransitionResult, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	allowed := false
	for _, s := range from {
		if s == p.Status {
			allowed = true
		}
	}
	if !allowed {
		return nil, errs.NewInvalidTransitionError("project", string(p.Status), string(to))
	}
	f.transitions++
	p.Status = to
	return &models.TransitionResult{ProjectID: p.ID, Name: p.Name, CreatedBy: p.CreatedBy, Status: to}, nil
}

func (f *fakeProjectStore) Delete(_ context.Context, id uuid.UUID) (*models.DeletedProject, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	delete(f.projects, id)
	f.deleted = &models.DeletedProject{ID: id, PictureURL: p.PictureURL, MediaURLs: []string{"https://cdn.example.com/projects/a.png"}}
	return f.deleted, nil
}

func (f *fakeProjectStore) List(_ context.Context, filter models.ProjectFilter) (models.ProjectPage, error) {
	f.lastFilter = filter
	return models.ProjectPage{Projects: []models.ProjectSummary{}}, nil
}

func (f *fakeProjectStore) FindDetail(_ context.Context, id uuid.UUID, status *models.ProjectStatus) (*models.ProjectDetail, error) {
	f.lastStatus = status
	p, ok := f.projects[id]
	if !ok || (status != nil && p.Status != *status) {
		return nil, errs.NewNotFound("project")
	}
	return &models.ProjectDetail{ProjectSummary: models.ProjectSummary{ProjectID: p.ID, Name: p.Name, Status: p.Status}}, nil
}

func (f *fakeProjectStore) CountByStatus(_ context.Context, _ models.ProjectStatus) (int64, error) {
	return f.pending, nil
}

type fakeUsers struct {
	users map[uuid.UUID]models.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errs.NewNotFound("user")
	}
	return &u, nil
}

func (f *fakeUsers) FindByRoles(_ context.Context, roles ...models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Role.In(roles...) {
			out = append(out, u)
		}
	}
	return out, nil
}

type sentMessage struct {
	To, Subject, Text, HTML string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentMessage
	err    error
	ctxErr error
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, text, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Subject: subject, Text: text, HTML: html})
	return nil
}

type fakeRemover struct {
	urls []string
}

func (f *fakeRemover) Remove(urls ...string) {
	f.urls = append(f.urls, urls...)
}

type managerFixture struct {
	manager   *ProjectManager
	store     *fakeProjectStore
	notifier  *fakeNotifier
	remover   *fakeRemover
	creator   models.User
	moderator models.Caller
	member    models.Caller
}

func newManagerFixture() managerFixture {
	creator := models.User{ID: uuid.New(), Name: "Uma", Email: "uma@example.com", Role: models.RoleMember}
	lead := models.User{ID: uuid.New(), Name: "Lea", Email: "lea@example.com", Role: models.RoleTeamLeader}
	store := newFakeProjectStore()
	notifier := &fakeNotifier{}
	remover := &fakeRemover{}
	users := &fakeUsers{users: map[uuid.UUID]models.User{creator.ID: creator, lead.ID: lead}}
	return managerFixture{
		manager:   NewProjectManager(store, users, notifier, WithBlobRemover(remover)),
		store:     store,
		notifier:  notifier,
		remover:   remover,
		creator:   creator,
		moderator: models.Caller{UserID: lead.ID, Role: models.RoleTeamLeader},
		member:    models.Caller{UserID: creator.ID, Role: models.RoleMember},
	}
}

func TestCreate_ForcesPendingAndCallerAsCreator(t *testing.T) {
	f := newManagerFixture()

	project, err := f.manager.Create(context.Background(), f.member, CreateProjectInput{
		Name:        "  Alpha ",
		Description: ptr("   "),
		PictureURL:  ptr("https://cdn.example.com/projects/alpha.png"),
		Skills:      []string{"Go", "SQL"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, project.Status)
	assert.Equal(t, f.creator.ID, project.CreatedBy)
	require.Len(t, f.store.drafts, 1)
	draft := f.store.drafts[0]
	assert.Equal(t, "Alpha", draft.Name)
	assert.Nil(t, draft.Description)
	assert.Equal(t, "https://cdn.example.com/projects/alpha.png", *draft.PictureURL)
	assert.Equal(t, []string{"Go", "SQL"}, draft.Skills)
}

func TestCreate_Validation(t *testing.T) {
	f := newManagerFixture()

	tests := []struct {
		name   string
		caller models.Caller
		input  CreateProjectInput
		check  func(error) bool
		field  string
	}{
		{
			name:   "missing name",
			caller: f.member,
			input:  CreateProjectInput{Name: "   "},
			check:  errs.IsMissingRequiredFieldError,
			field:  "name",
		},
		{
			name:   "missing creator",
			caller: models.Caller{},
			input:  CreateProjectInput{Name: "Alpha"},
			check:  errs.IsMissingRequiredFieldError,
			field:  "created_by",
		},
		{
			name:   "unknown media type",
			caller: f.member,
			input: CreateProjectInput{Name: "Alpha", Media: []models.MediaDescriptor{
				{Type: "hologram", URL: "https://example.com/h"},
			}},
			check: errs.IsInvalidFieldError,
			field: "media.type",
		},
		{
			name:   "unknown role",
			caller: models.Caller{UserID: uuid.New(), Role: "guest"},
			input:  CreateProjectInput{Name: "Alpha"},
			check:  errs.IsForbidden,
			field:  "authorization",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.Create(context.Background(), tt.caller, tt.input)

			require.Error(t, err)
			assert.True(t, tt.check(err))
			var apiErr *errs.ApiErr
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.field, apiErr.Field)
		})
	}
	assert.Empty(t, f.store.drafts)
}

func TestCreate_IncompleteMediaIsNotAnError(t *testing.T) {
	f := newManagerFixture()

	_, err := f.manager.Create(context.Background(), f.member, CreateProjectInput{
		Name:  "Alpha",
		Media: []models.MediaDescriptor{{Type: "hologram"}, {URL: "https://example.com"}},
	})

	require.NoError(t, err)
}

func TestApprove_NotifiesCreatorOnce(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)

	result, err := f.manager.Approve(context.Background(), f.moderator, p.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, result.Status)
	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, "uma@example.com", sent.To)
	assert.Contains(t, sent.Subject, "Alpha")
	assert.Contains(t, sent.Text, "Alpha")
	assert.Contains(t, sent.HTML, "Alpha")
}

func TestReject_IncludesReasonVerbatim(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)
	reason := "Screenshots are missing <3\nPlease add them."

	result, err := f.manager.Reject(context.Background(), f.moderator, p.ID, reason)

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Status)
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].Text, reason)
	assert.Contains(t, f.notifier.sent[0].HTML, "Screenshots are missing &lt;3")
}

func TestModerate_NotFoundSendsNothing(t *testing.T) {
	f := newManagerFixture()

	_, err := f.manager.Approve(context.Background(), f.moderator, uuid.New())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	_, err = f.manager.Reject(context.Background(), f.moderator, uuid.New(), "nope")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	assert.Empty(t, f.notifier.sent)
}

func TestModerate_NotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newManagerFixture()
	f.notifier.err = errors.New("smtp down")
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)

	result, err := f.manager.Approve(context.Background(), f.moderator, p.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, result.Status)
	assert.Equal(t, models.StatusApproved, f.store.projects[p.ID].Status)
}

func TestModerate_NotificationSurvivesCanceledRequest(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.Approve(ctx, f.moderator, p.ID)

	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)
	assert.NoError(t, f.notifier.ctxErr)
}

func TestModerate_RepeatedAndFlippedDecisionsAreAccepted(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)
	ctx := context.Background()

	_, err := f.manager.Approve(ctx, f.moderator, p.ID)
	require.NoError(t, err)
	_, err = f.manager.Approve(ctx, f.moderator, p.ID)
	require.NoError(t, err)
	_, err = f.manager.Reject(ctx, f.moderator, p.ID, "")
	require.NoError(t, err)

	assert.Equal(t, 3, f.store.transitions)
	assert.Len(t, f.notifier.sent, 3)
}

func TestModerate_RequiresModerator(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)

	_, err := f.manager.Approve(context.Background(), f.member, p.ID)

	require.Error(t, err)
	assert.True(t, errs.IsInsufficientRoleError(err))
	assert.Equal(t, models.StatusPending, f.store.projects[p.ID].Status)
	assert.Empty(t, f.notifier.sent)
}

func TestDelete_RemovesBlobs(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusApproved)
	p.PictureURL = ptr("https://cdn.example.com/projects/cover.png")

	err := f.manager.Delete(context.Background(), f.moderator, p.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/projects/cover.png",
		"https://cdn.example.com/projects/a.png",
	}, f.remover.urls)
}

func TestDelete_NotFoundRemovesNothing(t *testing.T) {
	f := newManagerFixture()

	err := f.manager.Delete(context.Background(), f.moderator, uuid.New())

	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Empty(t, f.remover.urls)
}

func TestDelete_RequiresModerator(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusApproved)

	err := f.manager.Delete(context.Background(), f.member, p.ID)

	assert.True(t, errs.IsForbidden(err))
	assert.Contains(t, f.store.projects, p.ID)
}

func TestUpdate_CreatorOrModeratorOnly(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)
	ctx := context.Background()

	_, err := f.manager.Update(ctx, f.member, p.ID, models.ProjectChanges{Name: ptr("Alpha 2")})
	require.NoError(t, err)

	_, err = f.manager.Update(ctx, f.moderator, p.ID, models.ProjectChanges{Name: ptr("Alpha 3")})
	require.NoError(t, err)

	stranger := models.Caller{UserID: uuid.New(), Role: models.RoleMember}
	_, err = f.manager.Update(ctx, stranger, p.ID, models.ProjectChanges{Name: ptr("Mine now")})
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))
	assert.Equal(t, "Alpha 3", f.store.projects[p.ID].Name)
}

func TestUpdate_RejectsBlankName(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)

	_, err := f.manager.Update(context.Background(), f.member, p.ID, models.ProjectChanges{Name: ptr("  ")})

	assert.True(t, errs.IsInvalidFieldError(err))
	assert.Equal(t, "Alpha", f.store.projects[p.ID].Name)
}

func TestListings_ForceStatus(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()
	rejected := models.StatusRejected

	_, err := f.manager.ListPublic(ctx, models.ProjectFilter{Status: &rejected, Skill: "react"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, *f.store.lastFilter.Status)
	assert.Equal(t, "react", f.store.lastFilter.Skill)

	_, err = f.manager.ListPending(ctx, f.moderator, models.ProjectFilter{Status: &rejected})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, *f.store.lastFilter.Status)

	_, err = f.manager.ListAll(ctx, f.moderator, models.ProjectFilter{})
	require.NoError(t, err)
	assert.Nil(t, f.store.lastFilter.Status)

	_, err = f.manager.ListPending(ctx, f.member, models.ProjectFilter{})
	assert.True(t, errs.IsForbidden(err))
}

func TestGetPublic_HidesUnapproved(t *testing.T) {
	f := newManagerFixture()
	p := f.store.add(f.creator.ID, "Alpha", models.StatusPending)

	_, err := f.manager.GetPublic(context.Background(), p.ID)
	assert.True(t, errs.IsNotFound(err))

	p.Status = models.StatusApproved
	detail, err := f.manager.GetPublic(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", detail.Name)
}

func TestSendPendingDigest(t *testing.T) {
	f := newManagerFixture()

	sent, err := f.manager.SendPendingDigest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.notifier.sent)

	f.store.pending = 3
	sent, err = f.manager.SendPendingDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "lea@example.com", f.notifier.sent[0].To)
	assert.Equal(t, "3 projects are awaiting review", f.notifier.sent[0].Subject)
}

func ptr(s string) *string { return &s }
