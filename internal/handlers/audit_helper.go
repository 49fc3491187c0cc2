package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/middleware"
	"github.com/smarttransit/bus-booking-backend/internal/services"
	"github.com/smarttransit/bus-booking-backend/internal/utils"
)

// AuditLogger persists audit events
type AuditLogger interface {
	Log(ctx context.Context, event services.AuditEvent) error
}

// auditRecorder writes audit entries without ever failing the request
type auditRecorder struct {
	audit  AuditLogger
	logger *logrus.Logger
}

func newAuditRecorder(audit AuditLogger, logger *logrus.Logger) auditRecorder {
	return auditRecorder{audit: audit, logger: logger}
}

// record logs action against the entity on behalf of the current caller
func (r auditRecorder) record(c *gin.Context, action, entityType, entityID string, details map[string]interface{}) {
	if r.audit == nil {
		return
	}

	event := services.AuditEvent{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  utils.GetRealIP(c),
		UserAgent:  utils.GetUserAgent(c),
		Details:    details,
	}
	if userCtx, ok := middleware.GetUserContext(c); ok {
		event.UserID = userCtx.UserID
	}

	if err := r.audit.Log(c.Request.Context(), event); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warn("Failed to write audit log")
	}
}
