package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityReader returns recent audit entries for a user
type ActivityReader interface {
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]services.AuditEntry, error)
}

// AdminHandler serves the admin dashboard, user directory, and reports
type AdminHandler struct {
	users          *services.UserService
	reports        *services.ReportService
	reconciliation *services.ReconciliationService
	activity       ActivityReader
	audit          auditRecorder
	logger         *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler. activity may be nil when
// audit logging is disabled.
func NewAdminHandler(
	users *services.UserService,
	reports *services.ReportService,
	reconciliation *services.ReconciliationService,
	activity ActivityReader,
	audit AuditLogger,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		users:          users,
		reports:        reports,
		reconciliation: reconciliation,
		activity:       activity,
		audit:          newAuditRecorder(audit, logger),
		logger:         logger,
	}
}

// GetDashboardStats returns headline counts
// GET /api/v1/admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.reports.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers lists the user directory
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetUser returns one user
// GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser edits a user record
// PUT /api/v1/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditUserUpdated, "user", user.ID, map[string]interface{}{"role": user.Role})
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user without bookings
// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditUserDeleted, "user", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetUserActivity lists the most recent audited actions of a user
// GET /api/v1/admin/users/:id/activity?limit=50
func (h *AdminHandler) GetUserActivity(c *gin.Context) {
	if h.activity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit logging is disabled", "code": "AUDIT_DISABLED"})
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxActivityLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be between 1 and " + strconv.Itoa(maxActivityLimit),
				"code":  "INVALID_REQUEST",
			})
			return
		}
		limit = parsed
	}

	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "NOT_FOUND"})
		return
	}

	entries, err := h.activity.GetRecentEvents(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": entries, "count": len(entries)})
}

// GetRevenueReport sums completed bookings
// GET /api/v1/admin/reports/revenue?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *AdminHandler) GetRevenueReport(c *gin.Context) {
	report, err := h.reports.RevenueReport(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetUserReport summarises the user directory
// GET /api/v1/admin/reports/users
func (h *AdminHandler) GetUserReport(c *gin.Context) {
	stats, err := h.reports.UserStatistics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetBusReport summarises the fleet
// GET /api/v1/admin/reports/buses
func (h *AdminHandler) GetBusReport(c *gin.Context) {
	stats, err := h.reports.BusStatistics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetInventoryDrift runs reconciliation on demand
// GET /api/v1/admin/inventory/drift
func (h *AdminHandler) GetInventoryDrift(c *gin.Context) {
	drift, err := h.reconciliation.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drift": drift, "count": len(drift)})
}
