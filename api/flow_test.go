package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/rpupo63/team-portfolio-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory ProjectStore for driving the manager end to end.
type memStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*memProject
	users    map[uuid.UUID]models.User
}

type memProject struct {
	project models.Project
	skills  []string
}

func newMemStore(users ...models.User) *memStore {
	s := &memStore{projects: map[uuid.UUID]*memProject{}, users: map[uuid.UUID]models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) Create(_ context.Context, draft models.ProjectDraft) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p := models.Project{
		ID:          uuid.New(),
		Name:        draft.Name,
		Description: draft.Description,
		PictureURL:  draft.PictureURL,
		Status:      models.StatusPending,
		CreatedBy:   draft.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	skills := append([]string(nil), draft.Skills...)
	sort.Strings(skills)
	s.projects[p.ID] = &memProject{project: p, skills: skills}
	return &p, nil
}

func (s *memStore) Update(_ context.Context, id uuid.UUID, changes models.ProjectChanges, authorize func(models.Project) error) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	if err := authorize(mp.project); err != nil {
		return nil, err
	}
	if changes.Name != nil {
		mp.project.Name = *changes.Name
	}
	p := mp.project
	return &p, nil
}

func (s *memStore) Transition(_ context.Context, id uuid.UUID, to models.ProjectStatus, _ []models.ProjectStatus) (*models.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	mp.project.Status = to
	return &models.TransitionResult{ProjectID: id, Name: mp.project.Name, CreatedBy: mp.project.CreatedBy, Status: to}, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) (*models.DeletedProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	delete(s.projects, id)
	return &models.DeletedProject{ID: id, PictureURL: mp.project.PictureURL}, nil
}

func (s *memStore) List(_ context.Context, filter models.ProjectFilter) (models.ProjectPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := models.ProjectPage{Projects: []models.ProjectSummary{}}
	for _, mp := range s.projects {
		if filter.Status != nil && mp.project.Status != *filter.Status {
			continue
		}
		page.Projects = append(page.Projects, s.summary(mp))
	}
	page.Total = int64(len(page.Projects))
	return page, nil
}

func (s *memStore) FindDetail(_ context.Context, id uuid.UUID, status *models.ProjectStatus) (*models.ProjectDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.projects[id]
	if !ok || (status != nil && mp.project.Status != *status) {
		return nil, errs.NewNotFound("project")
	}
	return &models.ProjectDetail{
		ProjectSummary: s.summary(mp),
		Participants:   []models.ParticipantRef{{UserID: mp.project.CreatedBy, Name: s.users[mp.project.CreatedBy].Name}},
		MediaItems:     []models.MediaItem{},
	}, nil
}

func (s *memStore) CountByStatus(_ context.Context, status models.ProjectStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, mp := range s.projects {
		if mp.project.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *memStore) summary(mp *memProject) models.ProjectSummary {
	creator := s.users[mp.project.CreatedBy]
	return models.ProjectSummary{
		ProjectID: mp.project.ID,
		Name:      mp.project.Name,
		Status:    mp.project.Status,
		CreatedBy: models.CreatorRef{UserID: creator.ID, Name: creator.Name, AvatarURL: creator.AvatarURL},
		Skills:    mp.skills,
		Media:     models.MediaByType{Image: []string{}, Video: []string{}, Link: []string{}},
		CreatedAt: mp.project.CreatedAt,
		UpdatedAt: mp.project.UpdatedAt,
	}
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errs.NewNotFound("user")
	}
	return &u, nil
}

func (s *memStore) FindByRoles(_ context.Context, roles ...models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.Role.In(roles...) {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+": "+subject)
	return nil
}

func TestProjectLifecycle(t *testing.T) {
	creator := models.User{ID: uuid.New(), Name: "Una", Email: "una@example.com", Role: models.RoleMember}
	store := newMemStore(creator)
	notifier := &recordingNotifier{}
	manager := services.NewProjectManager(store, store, notifier)

	verifier, err := NewTokenVerifier(testSecret, "", "")
	require.NoError(t, err)
	env := &testEnv{verifier: verifier}
	env.router = newRouter(Dependencies{
		Projects: manager,
		Skills:   fakeSkills{},
		Users:    &fakeUsers{},
		Verifier: verifier,
	}, withConfig(map[string]string{"LOG_FORMAT": "json"}), withStartupTime(time.Now()))

	author := models.Caller{UserID: creator.ID, Role: creator.Role}

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/projects", map[string]any{
		"name":   "Alpha",
		"skills": []string{"Go", "SQL"},
	}), author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	projectID := decodeBody[CreateProjectResponse](t, rec).ProjectID
	require.NotEqual(t, uuid.Nil, projectID)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/public/"+projectID.String(), nil), models.Caller{})
	require.Equal(t, http.StatusNotFound, rec.Code, "pending projects are not public")

	rec = env.do(t, httptest.NewRequest(http.MethodPut, "/projects/"+projectID.String()+"/approve", nil), author)
	require.Equal(t, http.StatusForbidden, rec.Code, "members cannot moderate")

	rec = env.do(t, httptest.NewRequest(http.MethodPut, "/projects/"+projectID.String()+"/approve", nil), leader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/public/"+projectID.String(), nil), models.Caller{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decodeBody[models.ProjectDetail](t, rec)
	assert.Equal(t, []string{"Go", "SQL"}, detail.Skills)
	assert.Equal(t, creator.ID, detail.CreatedBy.UserID)
	assert.Equal(t, models.StatusApproved, detail.Status)

	assert.Equal(t, []string{`una@example.com: Your project "Alpha" was approved`}, notifier.sent)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/public", nil), models.Caller{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/projects/"+projectID.String(), nil), admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/projects/"+projectID.String(), nil), admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
