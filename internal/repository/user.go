package repository

import (
	"context"

	"sharify/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository stores public user records.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// Ensure inserts user unless a row with the same ID exists. It reports
	// whether a row was created.
	Ensure(ctx context.Context, user *models.User) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) Ensure(ctx context.Context, user *models.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
