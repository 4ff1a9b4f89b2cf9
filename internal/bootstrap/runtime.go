// Package bootstrap wires the process-wide runtime the API server needs.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"sharify/internal/cache"
	"sharify/internal/config"
	"sharify/internal/database"
	"sharify/internal/models"
	"sharify/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to DB and Redis and runs the startup data tasks cfg
// asks for.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare ensures the development admin and built-in resources exist.
func Prepare(cfg *config.Config, db *gorm.DB) error {
	if err := ensureDevAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	if cfg.SeedBuiltInResources {
		if err := seed.Resources(db); err != nil {
			return fmt.Errorf("failed to seed built-in resources: %w", err)
		}
	}
	return nil
}

func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@sharify.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		findErr := tx.Where("email = ?", email).First(&account).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			now := db.NowFunc()
			account = models.Account{
				Email:            email,
				PasswordHash:     string(hashed),
				DisplayName:      "Admin",
				EmailConfirmedAt: &now,
				IsAdmin:          true,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		case !account.IsAdmin:
			if err := tx.Model(&account).Update("is_admin", true).Error; err != nil {
				return err
			}
		}

		user := models.User{ID: account.ID, Name: account.DisplayName, Email: account.Email}
		return tx.Where(models.User{ID: account.ID}).FirstOrCreate(&user).Error
	})
	if err != nil {
		return err
	}

	log.Printf("development admin bootstrap ensured for %s", email)
	return nil
}
