package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/pkg/validator"
)

// UserStore is the persistence the admin user directory needs
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// UserService exposes the user directory to admins
type UserService struct {
	users  UserStore
	phones *validator.PhoneValidator
	logger *logrus.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, logger *logrus.Logger) *UserService {
	return &UserService{users: users, phones: validator.NewPhoneValidator(), logger: logger}
}

// ListUsers returns every user, newest first
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("user", id)
	}
	return user, err
}

// UpdateUser applies an admin edit to a user record
func (s *UserService) UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, newValidationError("name", "cannot be empty")
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*req.Email)); err != nil {
			return nil, newValidationError("email", "must be a valid email address")
		}
	}
	if req.Phone != nil && *req.Phone != "" {
		sanitized, err := s.phones.Validate(*req.Phone)
		if err != nil {
			return nil, newValidationError("phone", err.Error())
		}
		req.Phone = &sanitized
	}
	if req.Role != nil {
		role := models.UserRole(strings.ToLower(strings.TrimSpace(*req.Role)))
		if !role.IsValid() {
			return nil, newValidationError("role", "must be user or admin")
		}
		normalized := string(role)
		req.Role = &normalized
	}

	user, err := s.users.Update(ctx, id, req)
	switch {
	case err == sql.ErrNoRows:
		return nil, newNotFoundError("user", id)
	case errors.Is(err, database.ErrDuplicate):
		return nil, &ConflictError{Resource: "user", Message: "email is already in use"}
	case err != nil:
		return nil, err
	}

	s.logger.WithField("user_id", id).Info("User updated")
	return user, nil
}

// DeleteUser removes a user that has no bookings
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	switch {
	case err == sql.ErrNoRows:
		return newNotFoundError("user", id)
	case errors.Is(err, database.ErrReferenced):
		return &ConflictError{Resource: "user", Message: "user has bookings and cannot be deleted"}
	case err != nil:
		return err
	}

	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}
