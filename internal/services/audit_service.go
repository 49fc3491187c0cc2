package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/utils"
)

// Audit actions
const (
	AuditBookingCreated   = "booking_created"
	AuditBookingCancelled = "booking_cancelled"
	AuditBookingStatus    = "booking_status_changed"
	AuditBusCreated       = "bus_created"
	AuditBusUpdated       = "bus_updated"
	AuditBusDeleted       = "bus_deleted"
	AuditRouteCreated     = "route_created"
	AuditRouteUpdated     = "route_updated"
	AuditRouteDeleted     = "route_deleted"
	AuditUserUpdated      = "user_updated"
	AuditUserDeleted      = "user_deleted"
)

// AuditService records who changed what in the audit_logs table
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEvent represents one audited change
type AuditEvent struct {
	UserID     string                 // Acting user, empty for anonymous requests
	Action     string                 // One of the Audit* actions
	EntityType string                 // booking, bus, route, user
	EntityID   string                 // ID of the affected entity
	IPAddress  string                 // Client IP address
	UserAgent  string                 // Client user agent
	Details    map[string]interface{} // Additional details stored as JSONB
}

// AuditEntry is a stored audit event
type AuditEntry struct {
	Action     string         `json:"action" db:"action"`
	EntityType string         `json:"entity_type" db:"entity_type"`
	EntityID   string         `json:"entity_id" db:"entity_id"`
	IPAddress  string         `json:"ip_address" db:"ip_address"`
	DeviceInfo types.JSONText `json:"device_info" db:"device_info"`
	Details    types.JSONText `json:"details" db:"details"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Log writes an audit event. The user agent is parsed into device_info.
func (s *AuditService) Log(ctx context.Context, event AuditEvent) error {
	deviceInfo, err := json.Marshal(utils.ParseUserAgent(event.UserAgent))
	if err != nil {
		return fmt.Errorf("failed to encode device info: %w", err)
	}

	details := event.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, device_info, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err = s.db.ExecContext(ctx, query,
		nullableUUID(event.UserID),
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		deviceInfo,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}

// GetRecentEvents retrieves recent audit events performed by a user
func (s *AuditService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]AuditEntry, error) {
	query := `
		SELECT action,
		       COALESCE(entity_type, '') AS entity_type,
		       COALESCE(entity_id, '') AS entity_id,
		       COALESCE(ip_address, '') AS ip_address,
		       COALESCE(device_info, '{}'::jsonb) AS device_info,
		       COALESCE(details, '{}'::jsonb) AS details,
		       created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	entries := []AuditEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return entries, nil
}

func nullableUUID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
