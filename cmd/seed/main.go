package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/container"
	"github.com/oksasatya/account-service/internal/domain/entity"
	"github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/helpers"
)

var errNotAdmin = errors.New("account exists and is not an administrator")

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// seeds a verified administrator; re-running only resets an existing admin's password
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := container.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer closeStore()

	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")

	admin, created, err := seedAdmin(ctx, store.Accounts, helpers.NewPasswordCodec(cfg.BcryptCost), email, password)
	if err != nil {
		log.Fatalf("failed to seed admin %s: %v", email, err)
	}
	if created {
		fmt.Printf("seeded admin: id=%s email=%s\n", admin.ID, email)
		return
	}
	fmt.Printf("admin exists: id=%s email=%s (password reset)\n", admin.ID, email)
}

// seedAdmin creates a verified administrator, or resets the password of an
// existing one. Any other account under email is left untouched.
func seedAdmin(ctx context.Context, accounts repository.AccountRepository, codec *helpers.PasswordCodec, email, password string) (*entity.Account, bool, error) {
	existing, err := accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			return nil, false, errNotAdmin
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("look up account: %w", err)
	}

	hash, err := codec.Hash(password)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if err := accounts.UpdatePassword(ctx, email, hash); err != nil {
			return nil, false, fmt.Errorf("reset password: %w", err)
		}
		return existing, false, nil
	}

	admin := &entity.Account{
		LastName:     "Admin",
		FirstName:    "Seed",
		Email:        email,
		PasswordHash: hash,
		DateOfBirth:  time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		Verified:     true,
		IsAdmin:      true,
	}
	if err := accounts.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}
