package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

// BusHandler serves the bus inventory
type BusHandler struct {
	buses  *services.BusService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewBusHandler creates a new BusHandler
func NewBusHandler(buses *services.BusService, audit AuditLogger, logger *logrus.Logger) *BusHandler {
	return &BusHandler{buses: buses, audit: newAuditRecorder(audit, logger), logger: logger}
}

// ListBuses searches active buses
// GET /api/v1/buses?source=&destination=&date=YYYY-MM-DD&bus_type=
func (h *BusHandler) ListBuses(c *gin.Context) {
	h.listBuses(c, false)
}

// AdminListBuses lists every bus including deactivated ones
// GET /api/v1/admin/buses
func (h *BusHandler) AdminListBuses(c *gin.Context) {
	h.listBuses(c, true)
}

func (h *BusHandler) listBuses(c *gin.Context, includeInactive bool) {
	var filter models.BusFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "code": "INVALID_REQUEST"})
		return
	}
	filter.IncludeInactive = includeInactive

	buses, err := h.buses.ListBuses(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": buses, "count": len(buses)})
}

// GetBusByID retrieves a specific bus with its route
// GET /api/v1/buses/:id
func (h *BusHandler) GetBusByID(c *gin.Context) {
	bus, err := h.buses.GetBus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// CreateBus creates a new bus
// POST /api/v1/buses
func (h *BusHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if !bindJSON(c, &req) {
		return
	}

	bus, err := h.buses.CreateBus(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBusCreated, "bus", bus.ID, map[string]interface{}{
		"bus_number":  bus.BusNumber,
		"total_seats": bus.TotalSeats,
	})
	c.JSON(http.StatusCreated, bus)
}

// UpdateBus applies a partial update
// PUT /api/v1/buses/:id
func (h *BusHandler) UpdateBus(c *gin.Context) {
	var req models.UpdateBusRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsEmpty() && req.Capacity == nil && req.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update", "code": "INVALID_REQUEST"})
		return
	}

	bus, err := h.buses.UpdateBus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBusUpdated, "bus", bus.ID, map[string]interface{}{
		"total_seats":     bus.TotalSeats,
		"seats_available": bus.SeatsAvailable,
		"is_active":       bus.IsActive,
	})
	c.JSON(http.StatusOK, bus)
}

// DeleteBus removes a bus without bookings
// DELETE /api/v1/buses/:id
func (h *BusHandler) DeleteBus(c *gin.Context) {
	id := c.Param("id")
	if err := h.buses.DeleteBus(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBusDeleted, "bus", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Bus deleted successfully"})
}
