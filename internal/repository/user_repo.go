package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"excel_analytics/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByName(ctx context.Context, name string) (*model.User, error)
	FindByEmailOrName(ctx context.Context, email, name string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateProfilePicture(ctx context.Context, id uuid.UUID, path string) error
	SetRoleByEmail(ctx context.Context, email string, role model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindLoginsBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

const userColumns = `id, name, email, password_hash, role, profile_picture, is_active, last_login, created_at, updated_at`

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row scanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.ProfilePicture, &user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// findOne runs a single-row user query, mapping no rows to (nil, nil)
func (r *userRepository) findOne(ctx context.Context, what, sql string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error for this method's contract, service layer handles it
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", what, err)
	}
	return user, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (id, name, email, password_hash, role, profile_picture, is_active, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, sql, user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.ProfilePicture, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by their email address
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByName retrieves a user by their display name
func (r *userRepository) FindByName(ctx context.Context, name string) (*model.User, error) {
	return r.findOne(ctx, "name", `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
}

// FindByEmailOrName retrieves the first user matching either field
func (r *userRepository) FindByEmailOrName(ctx context.Context, email, name string) (*model.User, error) {
	return r.findOne(ctx, "email or name", `SELECT `+userColumns+` FROM users WHERE email = $1 OR name = $2 LIMIT 1`, email, name)
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "ID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindAll lists every user, newest first
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update modifies the editable fields of an existing user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	sql := `UPDATE users
            SET name = $1, email = $2, password_hash = $3, role = $4, profile_picture = $5, is_active = $6, updated_at = NOW()
            WHERE id = $7 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, user.Name, user.Email, user.PasswordHash, user.Role,
		user.ProfilePicture, user.IsActive, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) exec(ctx context.Context, what, sql string, args ...any) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.exec(ctx, "update password", `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
}

// UpdateLastLogin records a successful login
func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, "update last login", `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
}

// UpdateProfilePicture updates the profile picture path for a user
func (r *userRepository) UpdateProfilePicture(ctx context.Context, id uuid.UUID, path string) error {
	return r.exec(ctx, "update profile picture", `UPDATE users SET profile_picture = $1, updated_at = NOW() WHERE id = $2`, path, id)
}

// SetRoleByEmail changes the role of the user owning email
func (r *userRepository) SetRoleByEmail(ctx context.Context, email string, role model.Role) error {
	return r.exec(ctx, "set role", `UPDATE users SET role = $1, updated_at = NOW() WHERE email = $2`, role, email)
}

// Delete removes a user; their uploads cascade
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

// FindLoginsBetween returns the last-login timestamps falling inside [from, to]
func (r *userRepository) FindLoginsBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT last_login FROM users WHERE last_login >= $1 AND last_login <= $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query logins: %w", err)
	}
	defer rows.Close()

	var logins []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan login row: %w", err)
		}
		logins = append(logins, at)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login rows: %w", err)
	}
	return logins, nil
}
