package services

import (
	"errors"
	"fmt"

	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// ValidationError reports missing or malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports that a referenced record does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports a duplicate key or a blocked delete
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// CapacityError reports that a bus cannot seat the requested passengers
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return "selected seats are not available"
}

// AuthorizationError reports that the requester may not act on a record
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return "not authorized to " + e.Action
}

// StateError reports an illegal booking status transition
type StateError struct {
	From    models.BookingStatus
	To      models.BookingStatus
	Message string
}

func (e *StateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func newNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsValidationError checks if err is a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError checks if err is a NotFoundError
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflictError checks if err is a ConflictError
func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsCapacityError checks if err is a CapacityError
func IsCapacityError(err error) bool {
	var target *CapacityError
	return errors.As(err, &target)
}

// IsAuthorizationError checks if err is an AuthorizationError
func IsAuthorizationError(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsStateError checks if err is a StateError
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}
