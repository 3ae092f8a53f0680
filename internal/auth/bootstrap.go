package auth

import (
	"context"
	"fmt"
	"log/slog"

	"potterylog/internal/domain"
)

// bootstrapUserStore is the subset of store.UserStore needed for seeding.
type bootstrapUserStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// EnsureBootstrapUser creates the configured admin account when the user table
// is empty, so a fresh deployment can log in. It does nothing when users
// already exist or when no credentials are configured.
func EnsureBootstrapUser(ctx context.Context, users bootstrapUserStore, username, password string, logger *slog.Logger) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user, err := users.Create(ctx, &domain.User{
		Username:       username,
		HashedPassword: hash,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap user: %w", err)
	}

	logger.Info("created bootstrap user", "username", user.Username)
	return nil
}
