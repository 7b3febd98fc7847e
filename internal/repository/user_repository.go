package repository

import (
	"context"
	"errors"

	"threadhub/pkg/database"
	"threadhub/pkg/models"
)

// UserRepository handles account persistence for the development backend
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new SQL user repository
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, username, display_name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		string(user.Role),
		dbTime{user.CreatedAt},
	)
	return mapDBError(err, "create_user")
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "get_user_by_id", `WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "get_user_by_username", `WHERE username = ?`, username)
}

func (r *userRepository) getOne(ctx context.Context, op, where string, arg interface{}) (*models.User, error) {
	query := r.db.Rebind(`
		SELECT id, username, display_name, password_hash, role, created_at
		FROM users ` + where)

	user := &models.User{}
	var role string
	var created dbTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&role,
		&created,
	)
	if err != nil {
		return nil, mapDBError(err, op)
	}
	user.Role = models.UserRole(role)
	user.CreatedAt = created.Time
	return user, nil
}

// UsernameExists checks whether a username is taken
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateRole changes a user's role
func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET role = ? WHERE id = ?`), string(role), id)
	if err != nil {
		return mapDBError(err, "update_user_role")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
