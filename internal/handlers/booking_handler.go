package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

// BookingHandler serves the passenger and admin booking endpoints
type BookingHandler struct {
	bookings *services.BookingService
	audit    auditRecorder
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, audit AuditLogger, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, audit: newAuditRecorder(audit, logger), logger: logger}
}

// CreateBooking reserves seats for the caller
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBookingCreated, "booking", booking.BookingID, map[string]interface{}{
		"bus_id":      booking.BusID,
		"passengers":  booking.Passengers,
		"total_price": booking.TotalPrice,
	})
	c.JSON(http.StatusCreated, booking)
}

// GetMyBookings lists the caller's bookings
// GET /api/v1/bookings/my-bookings
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListUserBookings(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GetBooking returns a booking the caller owns; admins see any booking
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), userCtx.UserID, userCtx.Role(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking cancels a booking and releases its seats
// PUT /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}
	h.cancel(c, userCtx.UserID, userCtx.Role())
}

// AdminCancelBooking cancels any booking
// PUT /api/v1/admin/bookings/:id/cancel
func (h *BookingHandler) AdminCancelBooking(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}
	h.cancel(c, userCtx.UserID, models.RoleAdmin)
}

func (h *BookingHandler) cancel(c *gin.Context, requesterID string, role models.UserRole) {
	booking, err := h.bookings.CancelBooking(c.Request.Context(), requesterID, role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBookingCancelled, "booking", booking.BookingID, map[string]interface{}{
		"seats_freed": booking.Passengers,
		"role":        role,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully", "booking": booking})
}

// ListAllBookings lists every booking
// GET /api/v1/bookings (admin)
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	bookings, err := h.bookings.ListAllBookings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// ConfirmBooking confirms a pending booking
// PUT /api/v1/bookings/:id/confirm (admin)
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookings.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBookingStatus, "booking", booking.BookingID, map[string]interface{}{"status": booking.Status})
	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus applies an admin status change
// PUT /api/v1/admin/bookings/:id/status
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.UpdateBookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request.Context(), userCtx.UserID, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.audit.record(c, services.AuditBookingStatus, "booking", booking.BookingID, map[string]interface{}{"status": booking.Status})
	c.JSON(http.StatusOK, booking)
}
