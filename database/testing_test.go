package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// GetTestDB returns a clean Database or skips when no test database is configured.
func GetTestDB(t *testing.T) Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if testDB == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	CleanupTestDB(t, testDB)
	return New(testDB)
}

func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec("TRUNCATE project_media, project_participants, project_skills, skills, projects, users CASCADE").Error
	require.NoError(t, err)
}

func seedUser(t *testing.T, d Database, name string, role models.Role) models.User {
	t.Helper()
	user := models.User{
		ID:    uuid.New(),
		Name:  name,
		Email: fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Role:  role,
	}
	require.NoError(t, d.UserRepo().Add(context.Background(), &user))
	return user
}

func countRows(t *testing.T, d Database, table string, where string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := d.DB().Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}
