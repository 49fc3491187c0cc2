package models

import (
	"strings"
	"time"
)

// Route is a source/destination pair that buses are scheduled on
type Route struct {
	ID          string    `json:"id" db:"id"`
	RouteName   string    `json:"route_name" db:"route_name"`
	Source      string    `json:"source" db:"source"`
	Destination string    `json:"destination" db:"destination"`
	Distance    float64   `json:"distance" db:"distance"` // km
	Duration    int       `json:"duration" db:"duration"` // minutes
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRouteRequest represents the request to create a route
type CreateRouteRequest struct {
	RouteName     string   `json:"route_name"`
	Source        string   `json:"source"`
	Destination   string   `json:"destination"`
	Distance      *float64 `json:"distance"`
	Duration      *int     `json:"duration"`
	EstimatedTime *int     `json:"estimated_time"` // alias for duration
}

// UpdateRouteRequest represents a partial route update
type UpdateRouteRequest struct {
	RouteName   *string  `json:"route_name,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
}

// RouteFilter narrows route listings
type RouteFilter struct {
	Source      string `form:"source"`
	Destination string `form:"destination"`
}

// ResolvedDuration returns duration, falling back to the estimated_time alias
func (r *CreateRouteRequest) ResolvedDuration() *int {
	if r.Duration != nil {
		return r.Duration
	}
	return r.EstimatedTime
}

// DeriveRouteName builds the display name used when none is supplied
func DeriveRouteName(source, destination string) string {
	return strings.TrimSpace(source) + " - " + strings.TrimSpace(destination)
}
