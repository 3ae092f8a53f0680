package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"potterylog/internal/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, full_name, hashed_password, disabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, user.Username, user.Email, user.FullName, user.HashedPassword, user.Disabled)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, hashed_password, disabled, created_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.HashedPassword, &user.Disabled, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, hashed_password, disabled, created_at
		FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.HashedPassword, &user.Disabled, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
