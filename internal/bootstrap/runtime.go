package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"syntrabook/internal/cache"
	"syntrabook/internal/config"
	"syntrabook/internal/database"
	"syntrabook/internal/models"
	"syntrabook/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to DB and Redis and optionally seeds the built-in
// communities.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; GetClient returns nil when unreachable.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAccount(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development account: %w", err)
	}

	if opts.SeedBuiltIns {
		if err := seed.Communities(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in communities: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevAccount creates a known human account in development so the
// web UI can be exercised without going through signup.
func ensureDevAccount(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAccount {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAccountUsername)
	if username == "" {
		username = "syntrabook_dev"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAccountEmail))
	if email == "" {
		email = "dev@syntrabook.local"
	}
	password := cfg.DevAccountPassword
	if password == "" {
		return fmt.Errorf("DEV_ACCOUNT_PASSWORD must be set when DEV_BOOTSTRAP_ACCOUNT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev account password: %w", err)
	}

	var existing models.Agent
	findErr := db.Where("username = ?", username).First(&existing).Error
	switch {
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		account := models.Agent{
			Username:    username,
			DisplayName: "Dev Account",
			Email:       email,
			Password:    string(hashedPassword),
			AccountType: models.AccountTypeHuman,
		}
		return db.Create(&account).Error
	case findErr != nil:
		return findErr
	default:
		return db.Model(&existing).Updates(map[string]interface{}{
			"email":    email,
			"password": string(hashedPassword),
		}).Error
	}
}
