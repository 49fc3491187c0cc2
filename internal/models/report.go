package models

import "time"

// DashboardStats is the admin landing page rollup
type DashboardStats struct {
	TotalUsers    int     `json:"total_users" db:"total_users"`
	TotalAdmins   int     `json:"total_admins" db:"total_admins"`
	TotalBuses    int     `json:"total_buses" db:"total_buses"`
	TotalRoutes   int     `json:"total_routes" db:"total_routes"`
	TotalBookings int     `json:"total_bookings" db:"total_bookings"`
	TotalRevenue  float64 `json:"total_revenue" db:"total_revenue"`
}

// RevenueReport sums completed bookings in an optional date window
type RevenueReport struct {
	StartDate     *time.Time `json:"start_date,omitempty" db:"-"`
	EndDate       *time.Time `json:"end_date,omitempty" db:"-"`
	TotalRevenue  float64    `json:"total_revenue" db:"total_revenue"`
	TotalBookings int        `json:"total_bookings" db:"total_bookings"`
	AverageAmount float64    `json:"average_amount" db:"average_amount"`
}

// CategoryCount is one row of a grouped count
type CategoryCount struct {
	Key   string `json:"key" db:"key"`
	Count int    `json:"count" db:"count"`
}

// UserStatistics summarises the user directory
type UserStatistics struct {
	TotalUsers        int             `json:"total_users"`
	NewUsersThisMonth int             `json:"new_users_this_month"`
	ByRole            []CategoryCount `json:"by_role"`
}

// BusStatistics summarises the fleet
type BusStatistics struct {
	TotalBuses    int             `json:"total_buses"`
	ActiveBuses   int             `json:"active_buses"`
	InactiveBuses int             `json:"inactive_buses"`
	ByType        []CategoryCount `json:"by_type"`
}

// InventoryDrift is a bus whose counter disagrees with its bookings
type InventoryDrift struct {
	BusID          string `json:"bus_id" db:"bus_id"`
	BusNumber      string `json:"bus_number" db:"bus_number"`
	TotalSeats     int    `json:"total_seats" db:"total_seats"`
	SeatsAvailable int    `json:"seats_available" db:"seats_available"`
	SeatsBooked    int    `json:"seats_booked" db:"seats_booked"`
	ExpectedSeats  int    `json:"expected_seats" db:"expected_seats"`
}
