package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/smarttransit/bus-booking-backend/internal/models"
)

const userColumns = `id, name, COALESCE(email, '') AS email, phone, address, role, created_at, updated_at`

// UserRepository handles database operations for the user directory
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	if err := r.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, lookupError(err)
	}
	return user, nil
}

// EnsureExists records a directory entry for an identity the token issuer
// already verified. New entries get the default role; existing rows are
// left untouched.
func (r *UserRepository) EnsureExists(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", translateError(err))
	}
	return nil
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies a partial update and returns the stored row
func (r *UserRepository) Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	updates := []string{}
	args := []interface{}{}
	argCount := 1

	if req.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argCount))
		args = append(args, *req.Name)
		argCount++
	}
	if req.Email != nil {
		updates = append(updates, fmt.Sprintf("email = $%d", argCount))
		args = append(args, strings.ToLower(strings.TrimSpace(*req.Email)))
		argCount++
	}
	if req.Phone != nil {
		updates = append(updates, fmt.Sprintf("phone = $%d", argCount))
		args = append(args, *req.Phone)
		argCount++
	}
	if req.Address != nil {
		updates = append(updates, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *req.Address)
		argCount++
	}
	if req.Role != nil {
		updates = append(updates, fmt.Sprintf("role = $%d", argCount))
		args = append(args, *req.Role)
		argCount++
	}

	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	updates = append(updates, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(updates, ", "), argCount, userColumns)

	user := &models.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if err == sql.ErrNoRows || isInvalidID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to update user: %w", translateError(err))
	}
	return user, nil
}

// Delete removes a user. Users that still own bookings yield ErrReferenced.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
