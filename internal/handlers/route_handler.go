package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

// RouteHandler serves the route catalog
type RouteHandler struct {
	routes *services.RouteService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routes *services.RouteService, audit AuditLogger, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, audit: newAuditRecorder(audit, logger), logger: logger}
}

// ListRoutes lists routes, optionally filtered by source and destination
// GET /api/v1/routes
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	var filter models.RouteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "code": "INVALID_REQUEST"})
		return
	}

	routes, err := h.routes.ListRoutes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}

// GetRoute returns one route
// GET /api/v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routes.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// CreateRoute adds a route
// POST /api/v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := h.routes.CreateRoute(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditRouteCreated, "route", route.ID, map[string]interface{}{"route_name": route.RouteName})
	c.JSON(http.StatusCreated, route)
}

// UpdateRoute edits a route
// PUT /api/v1/routes/:id
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	var req models.UpdateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := h.routes.UpdateRoute(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditRouteUpdated, "route", route.ID, nil)
	c.JSON(http.StatusOK, route)
}

// DeleteRoute removes a route no bus uses
// DELETE /api/v1/routes/:id
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	id := c.Param("id")
	if err := h.routes.DeleteRoute(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditRouteDeleted, "route", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}
