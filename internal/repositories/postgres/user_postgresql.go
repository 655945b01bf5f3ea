package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// GetByID reads through the user cache
func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cacheManager.User.CacheOrExecute(ctx, "id:"+id, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error; err != nil {
			return nil, handleDBError(err, "get user")
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by email")
	}
	return &user, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("email LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	var users []*models.User
	if err := applyPagination(query.Order("created_at DESC"), filters.Limit, filters.Offset).Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}
	return users, total, nil
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

// CreateIfNotExists issues INSERT ... ON CONFLICT (id) DO NOTHING and reports
// whether this call wrote the row. The in-memory fakeUserRepo in services tests
// follows the same contract.
func (u *UserPostgreSQL) CreateIfNotExists(ctx context.Context, user *models.User) (bool, error) {
	user.Email = strings.ToLower(user.Email)
	result := u.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, handleDBError(result.Error, "create user if not exists")
	}
	return result.RowsAffected == 1, nil
}

func (u *UserPostgreSQL) UpdateOnboarding(ctx context.Context, id string, step int, completed bool) error {
	return u.update(ctx, id, "update onboarding", map[string]interface{}{
		"onboarding_step":      step,
		"onboarding_completed": completed,
	})
}

func (u *UserPostgreSQL) SetMustChangePassword(ctx context.Context, id string, value bool) error {
	return u.update(ctx, id, "set must change password", map[string]interface{}{
		"must_change_password": value,
	})
}

func (u *UserPostgreSQL) Delete(ctx context.Context, id string) error {
	result := u.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete user")
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete user failed: %w", repositories.ErrNotFound)
	}
	return nil
}

func (u *UserPostgreSQL) update(ctx context.Context, id, operation string, values map[string]interface{}) error {
	result := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return handleDBError(result.Error, operation)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
	}
	return nil
}
