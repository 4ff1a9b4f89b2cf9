package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"sharify/internal/models"
	"sharify/internal/observability"

	"gorm.io/gorm"
)

// AccountRepository stores identity-provider accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	// GetByEmail returns (nil, nil) when no account uses email.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.Account, error)
	Confirm(ctx context.Context, id uint, at time.Time) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetAdmin(ctx context.Context, id uint, admin bool) error
	ListAdmins(ctx context.Context) ([]models.Account, error)
}

type accountRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAccountRepository returns a gorm-backed AccountRepository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db, log: observability.NewRepoLogger("accounts")}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return models.NewConflictError("User already registered")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"account_id": account.ID})
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, notFound(err, "Account", id)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, models.NewNotFoundError("Confirmation token", token)
	}
	var account models.Account
	if err := r.db.WithContext(ctx).Where("confirmation_token = ?", token).First(&account).Error; err != nil {
		return nil, notFound(err, "Confirmation token", token)
	}
	return &account, nil
}

func (r *accountRepository) Confirm(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]any{"email_confirmed_at": at, "confirmation_token": ""})
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

func (r *accountRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return r.update(ctx, id, map[string]any{"is_admin": admin})
}

func (r *accountRepository) update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account", id)
	}
	return nil
}

func (r *accountRepository) ListAdmins(ctx context.Context) ([]models.Account, error) {
	var admins []models.Account
	err := readDB(r.db).WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&admins).Error
	return admins, err
}
