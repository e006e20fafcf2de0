package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"warehouse_flow_backend/internal/models"
)

// AuthRepository defines the interface for operator account database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, executor SQLExecutor, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error)
	CountUsers(ctx context.Context, executor SQLExecutor) (int, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct{}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository() AuthRepository {
	return &authRepository{}
}

// CreateUser inserts a new active user.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now().UTC()
	user.IsActive = true

	err := executor.QueryRowContext(ctx, query,
		user.Username, hashedPassword, user.FullName, user.Role, user.IsActive, currentTime, currentTime,
	).Scan(&user.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating user")
	}
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime
	return user.ID, nil
}

// FindUserByUsername retrieves a user by their username together with the stored hash.
func (r *authRepository) FindUserByUsername(ctx context.Context, executor SQLExecutor, username string) (*models.User, string, error) {
	query := `SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
		FROM users WHERE username = $1`

	user := &models.User{}
	var hashedPassword string
	err := executor.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &user.FullName, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user profile. The password hash is not populated.
func (r *authRepository) FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error) {
	query := `SELECT id, username, full_name, role, is_active, created_at, updated_at
		FROM users WHERE id = $1`

	user := &models.User{}
	err := executor.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *authRepository) CountUsers(ctx context.Context, executor SQLExecutor) (int, error) {
	var count int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting users: %v", ErrDatabaseError, err)
	}
	return count, nil
}
