package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

type ProfilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{db: db}
}

func (p *ProfilePostgreSQL) GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := p.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, handleDBError(err, "get student profile")
	}
	return &profile, nil
}

// UpsertStudentProfile overwrites every answer column on conflict
func (p *ProfilePostgreSQL) UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"country", "region", "location", "school", "exam_board", "subjects", "goals", "updated_at",
			}),
		}).
		Create(profile).Error
	return handleDBError(err, "upsert student profile")
}

func (p *ProfilePostgreSQL) CreateStudentProfileIfNotExists(ctx context.Context, profile *models.StudentProfile) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(profile).Error
	return handleDBError(err, "create student profile")
}

func (p *ProfilePostgreSQL) GetContributorProfile(ctx context.Context, userID string) (*models.ContributorProfile, error) {
	var profile models.ContributorProfile
	if err := p.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, handleDBError(err, "get contributor profile")
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) CreateContributorProfileIfNotExists(ctx context.Context, profile *models.ContributorProfile) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(profile).Error
	return handleDBError(err, "create contributor profile")
}

func (p *ProfilePostgreSQL) DeleteByUser(ctx context.Context, userID string) error {
	db := p.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.StudentProfile{}).Error; err != nil {
		return handleDBError(err, "delete student profile")
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.ContributorProfile{}).Error; err != nil {
		return handleDBError(err, "delete contributor profile")
	}
	return nil
}
