package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// FindByID returns a user or a not-found error
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	res := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&user)
	if res.Error != nil {
		return nil, errs.NewDatabaseError("find", "user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.NewNotFound("user")
	}
	return &user, nil
}

// FindByRoles returns users holding any of roles, ordered by name.
func (r *UserRepo) FindByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	users := []models.User{}
	if len(roles) == 0 {
		return users, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	err := r.db.WithContext(ctx).Where("role IN ?", names).Order("name ASC").Find(&users).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", "users", err)
	}
	return users, nil
}

// Add inserts a user. Accounts normally come from the auth service; this is used by seeding and tests.
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return errs.NewDatabaseError("create", "user", err)
	}
	return nil
}

// Delete removes a user. Participant links go with it; a user who still created projects
// cannot be deleted.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		apiErr := errs.NewDatabaseError("delete", "user", res.Error)
		if errs.IsDependency(apiErr) {
			return errs.NewDependencyError("user", "user still owns projects; delete or reassign them first", res.Error)
		}
		return apiErr
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("user")
	}
	return nil
}
