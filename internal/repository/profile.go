package repository

import (
	"context"
	"errors"

	"sharify/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository stores optional user profiles.
type ProfileRepository interface {
	// Get returns (nil, nil) when the user has no profile yet.
	Get(ctx context.Context, userID uint) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	SetAvatar(ctx context.Context, userID uint, url string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a gorm-backed ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "bio", "location", "website", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) SetAvatar(ctx context.Context, userID uint, url string) error {
	profile := &models.Profile{UserID: userID, AvatarURL: url}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar_url", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
