package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrInsufficientSeats is returned when a conditional decrement matches no row
	ErrInsufficientSeats = errors.New("insufficient seats available")
	// ErrBookingAlreadyCancelled is returned when a guarded cancel matches no row
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	// ErrDuplicate is returned on a unique key collision
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced is returned when a delete is blocked by dependent rows
	ErrReferenced = errors.New("record is still referenced")
	// ErrInvalidInventory is returned when an update would break the seat range constraint
	ErrInvalidInventory = errors.New("seats_available must be between 0 and total_seats")
	// ErrBusInactive is returned when a decrement targets a deactivated bus
	ErrBusInactive = errors.New("bus is not accepting bookings")
	// ErrInvalidID is returned when a value cannot be parsed as a uuid column
	ErrInvalidID = errors.New("malformed id")
)

// PostgreSQL SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// sqlState extracts the SQLSTATE from either driver's error type
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translateError maps constraint violations onto repository sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch sqlState(err) {
	case codeUniqueViolation:
		return ErrDuplicate
	case codeForeignKeyViolation:
		return ErrReferenced
	case codeCheckViolation:
		return ErrInvalidInventory
	case codeInvalidText:
		return ErrInvalidID
	}
	return err
}

func isInvalidID(err error) bool {
	return err != nil && sqlState(err) == codeInvalidText
}

// lookupError reports a malformed id as a miss, since no row can carry it
func lookupError(err error) error {
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	return err
}
