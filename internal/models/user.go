package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// UserRole is the single role a directory user carries
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ns.Valid = s != nil
	if s != nil {
		ns.String = *s
	}
	return nil
}

// User is a passenger or administrator known to the directory.
// Credentials live with the identity provider and are not stored here.
type User struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Phone     NullString `json:"phone" db:"phone"`
	Address   NullString `json:"address" db:"address"`
	Role      UserRole   `json:"role" db:"role"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateUserRequest represents an admin update to a user record
type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Role    *string `json:"role,omitempty"`
}
