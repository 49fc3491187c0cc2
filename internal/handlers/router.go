package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/smarttransit/bus-booking-backend/internal/middleware"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Auth     gin.HandlerFunc
	Routes   *RouteHandler
	Buses    *BusHandler
	Bookings *BookingHandler
	Admin    *AdminHandler
}

// RegisterRoutes mounts the /api/v1 tree on router
func RegisterRoutes(router gin.IRouter, h Handlers) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")

	buses := v1.Group("/buses")
	{
		buses.GET("", h.Buses.ListBuses)
		buses.GET("/:id", h.Buses.GetBusByID)
		buses.POST("", h.Auth, adminOnly, h.Buses.CreateBus)
		buses.PUT("/:id", h.Auth, adminOnly, h.Buses.UpdateBus)
		buses.DELETE("/:id", h.Auth, adminOnly, h.Buses.DeleteBus)
	}

	routes := v1.Group("/routes")
	{
		routes.GET("", h.Routes.ListRoutes)
		routes.GET("/:id", h.Routes.GetRoute)
		routes.POST("", h.Auth, adminOnly, h.Routes.CreateRoute)
		routes.PUT("/:id", h.Auth, adminOnly, h.Routes.UpdateRoute)
		routes.DELETE("/:id", h.Auth, adminOnly, h.Routes.DeleteRoute)
	}

	bookings := v1.Group("/bookings")
	bookings.Use(h.Auth)
	{
		bookings.GET("/my-bookings", h.Bookings.GetMyBookings)
		bookings.POST("", h.Bookings.CreateBooking)
		bookings.GET("/:id", h.Bookings.GetBooking)
		bookings.PUT("/:id/cancel", h.Bookings.CancelBooking)
		bookings.GET("", adminOnly, h.Bookings.ListAllBookings)
		bookings.PUT("/:id/confirm", adminOnly, h.Bookings.ConfirmBooking)
	}

	admin := v1.Group("/admin")
	admin.Use(h.Auth, adminOnly)
	{
		admin.GET("/dashboard/stats", h.Admin.GetDashboardStats)

		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/users/:id", h.Admin.GetUser)
		admin.GET("/users/:id/activity", h.Admin.GetUserActivity)
		admin.PUT("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)

		admin.GET("/buses", h.Buses.AdminListBuses)
		admin.GET("/buses/:id", h.Buses.GetBusByID)
		admin.POST("/buses", h.Buses.CreateBus)
		admin.PUT("/buses/:id", h.Buses.UpdateBus)
		admin.DELETE("/buses/:id", h.Buses.DeleteBus)

		admin.GET("/routes", h.Routes.ListRoutes)
		admin.GET("/routes/:id", h.Routes.GetRoute)
		admin.POST("/routes", h.Routes.CreateRoute)
		admin.PUT("/routes/:id", h.Routes.UpdateRoute)
		admin.DELETE("/routes/:id", h.Routes.DeleteRoute)

		admin.GET("/bookings", h.Bookings.ListAllBookings)
		admin.GET("/bookings/:id", h.Bookings.GetBooking)
		admin.PUT("/bookings/:id/status", h.Bookings.UpdateBookingStatus)
		admin.PUT("/bookings/:id/cancel", h.Bookings.AdminCancelBooking)

		admin.GET("/reports/revenue", h.Admin.GetRevenueReport)
		admin.GET("/reports/users", h.Admin.GetUserReport)
		admin.GET("/reports/buses", h.Admin.GetBusReport)

		admin.GET("/inventory/drift", h.Admin.GetInventoryDrift)
	}
}
