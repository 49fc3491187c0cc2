package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/events"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// memDB is an in-memory ledger that mirrors the repository guarantees:
// conditional seat decrement, guarded cancel, and atomic create.
type memDB struct {
	mu       sync.Mutex
	routes   map[string]models.Route
	buses    map[string]models.Bus
	bookings map[string]models.Booking
	seq      int
}

func newMemDB() *memDB {
	return &memDB{
		routes:   map[string]models.Route{},
		buses:    map[string]models.Bus{},
		bookings: map[string]models.Booking{},
	}
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memDB) bus(id string) models.Bus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buses[id]
}

func (m *memDB) booking(id string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memDB) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// seed adds a route and an active bus with the given capacity and price
func (m *memDB) seed(seats int, price float64) (models.Route, models.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	route := models.Route{ID: m.nextID("route"), RouteName: "Colombo - Kandy", Source: "Colombo", Destination: "Kandy", Distance: 115, Duration: 180}
	m.routes[route.ID] = route

	bus := models.Bus{
		ID:             m.nextID("bus"),
		BusNumber:      fmt.Sprintf("NB-%d", m.seq),
		TotalSeats:     seats,
		SeatsAvailable: seats,
		BusType:        models.BusTypeAC,
		PricePerSeat:   price,
		RouteID:        route.ID,
		DepartureTime:  models.DefaultDepartureTime,
		ArrivalTime:    models.DefaultArrivalTime,
		DepartureDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
	m.buses[bus.ID] = bus
	return route, bus
}

type memRoutes struct{ *memDB }

func (r memRoutes) Create(_ context.Context, route *models.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route.ID = r.nextID("route")
	r.routes[route.ID] = *route
	return nil
}

func (r memRoutes) GetByID(_ context.Context, id string) (*models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &route, nil
}

func (r memRoutes) List(context.Context, models.RouteFilter) ([]models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Route{}
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out, nil
}

func (r memRoutes) Update(_ context.Context, id string, req *models.UpdateRouteRequest) (*models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if req.Source != nil {
		route.Source = *req.Source
	}
	if req.Destination != nil {
		route.Destination = *req.Destination
	}
	if req.Distance != nil {
		route.Distance = *req.Distance
	}
	if req.Duration != nil {
		route.Duration = *req.Duration
	}
	r.routes[id] = route
	return &route, nil
}

func (r memRoutes) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[id]; !ok {
		return sql.ErrNoRows
	}
	for _, bus := range r.buses {
		if bus.RouteID == id {
			return database.ErrReferenced
		}
	}
	delete(r.routes, id)
	return nil
}

type memBuses struct{ *memDB }

func (b memBuses) Create(_ context.Context, bus *models.Bus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.buses {
		if existing.BusNumber == bus.BusNumber {
			return database.ErrDuplicate
		}
	}
	bus.ID = b.nextID("bus")
	b.buses[bus.ID] = *bus
	return nil
}

func (b memBuses) GetByID(_ context.Context, id string) (*models.Bus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bus, ok := b.buses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if route, ok := b.routes[bus.RouteID]; ok {
		bus.Route = &route
	}
	return &bus, nil
}

func (b memBuses) List(_ context.Context, filter models.BusFilter) ([]models.Bus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Bus{}
	for _, bus := range b.buses {
		if !bus.IsActive && !filter.IncludeInactive {
			continue
		}
		out = append(out, bus)
	}
	return out, nil
}

func (b memBuses) Update(_ context.Context, id string, req *models.UpdateBusRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	bus, ok := b.buses[id]
	if !ok {
		return sql.ErrNoRows
	}
	if req.TotalSeats != nil {
		bus.TotalSeats = *req.TotalSeats
		bus.SeatsAvailable = *req.TotalSeats
	}
	if req.SeatsAvailable != nil {
		bus.SeatsAvailable = *req.SeatsAvailable
	}
	if req.PricePerSeat != nil {
		bus.PricePerSeat = *req.PricePerSeat
	}
	if req.IsActive != nil {
		bus.IsActive = *req.IsActive
	}
	if bus.SeatsAvailable < 0 || bus.SeatsAvailable > bus.TotalSeats {
		return database.ErrInvalidInventory
	}
	b.buses[id] = bus
	return nil
}

func (b memBuses) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buses[id]; !ok {
		return sql.ErrNoRows
	}
	for _, bk := range b.bookings {
		if bk.BusID == id {
			return database.ErrReferenced
		}
	}
	delete(b.buses, id)
	return nil
}

func (b memBuses) DecrementSeats(_ context.Context, busID string, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decrementLocked(busID, count)
}

func (b memBuses) IncrementSeats(_ context.Context, busID string, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.incrementLocked(busID, count)
}

func (m *memDB) decrementLocked(busID string, count int) error {
	bus, ok := m.buses[busID]
	switch {
	case !ok:
		return sql.ErrNoRows
	case !bus.IsActive:
		return database.ErrBusInactive
	case bus.SeatsAvailable < count:
		return database.ErrInsufficientSeats
	}
	bus.SeatsAvailable -= count
	m.buses[busID] = bus
	return nil
}

func (m *memDB) incrementLocked(busID string, count int) error {
	bus, ok := m.buses[busID]
	if !ok {
		return sql.ErrNoRows
	}
	bus.SeatsAvailable += count
	if bus.SeatsAvailable > bus.TotalSeats {
		bus.SeatsAvailable = bus.TotalSeats
	}
	m.buses[busID] = bus
	return nil
}

type memBookings struct{ *memDB }

func (s memBookings) CreateWithSeatReservation(_ context.Context, nb *models.NewBooking) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.BookingID == nb.BookingID {
			return nil, database.ErrDuplicate
		}
	}
	if err := s.decrementLocked(nb.BusID, nb.Passengers); err != nil {
		return nil, err
	}
	bk := models.Booking{
		ID:            s.nextID("row"),
		BookingID:     nb.BookingID,
		UserID:        nb.UserID,
		BusID:         nb.BusID,
		RouteID:       nb.RouteID,
		Passengers:    nb.Passengers,
		SeatNumbers:   models.StringArray(nb.SeatNumbers),
		TotalPrice:    nb.TotalPrice,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		TravelDate:    nb.TravelDate,
		BookingDate:   time.Now(),
	}
	s.bookings[bk.ID] = bk
	return &bk, nil
}

func (s memBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bk := range s.bookings {
		if bk.ID == id || bk.BookingID == id {
			return &bk, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memBookings) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, bk := range s.bookings {
		if bk.UserID == userID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (s memBookings) ListAll(context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, bk := range s.bookings {
		out = append(out, bk)
	}
	return out, nil
}

func (s memBookings) CancelWithSeatRelease(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk, ok := s.bookings[id]
	if !ok || bk.Status == models.BookingStatusCancelled || bk.Status == models.BookingStatusCompleted {
		return nil, database.ErrBookingAlreadyCancelled
	}
	bk.Status = models.BookingStatusCancelled
	bk.PaymentStatus = models.PaymentStatusRefunded
	if err := s.incrementLocked(bk.BusID, bk.Passengers); err != nil {
		return nil, err
	}
	s.bookings[id] = bk
	return &bk, nil
}

func (s memBookings) UpdateStatus(_ context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk, ok := s.bookings[id]
	if !ok {
		return nil, database.ErrStatusChanged
	}
	for _, f := range from {
		if bk.Status == f {
			bk.Status = to
			s.bookings[id] = bk
			return &bk, nil
		}
	}
	return nil, database.ErrStatusChanged
}

// sequenceIDs returns BUS-TEST-1, BUS-TEST-2, ...
type sequenceIDs struct{ n atomic.Int64 }

func (g *sequenceIDs) NewBookingID() (string, error) {
	return fmt.Sprintf("BUS-TEST-%d", g.n.Add(1)), nil
}

// fixedIDs replays ids in order, then repeats the last one
type fixedIDs struct {
	mu  sync.Mutex
	ids []string
}

func (g *fixedIDs) NewBookingID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.ids[0]
	if len(g.ids) > 1 {
		g.ids = g.ids[1:]
	}
	return id, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	stored      map[string]models.Bus
	generations map[string]int64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{stored: map[string]models.Bus{}, generations: map[string]int64{}}
}

func (c *recordingCache) GetBus(_ context.Context, id string) (*models.Bus, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bus, ok := c.stored[id]
	if !ok {
		return nil, c.generations[id], nil
	}
	return &bus, c.generations[id], nil
}

func (c *recordingCache) SetBus(_ context.Context, bus *models.Bus, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[bus.ID] != generation {
		return nil
	}
	c.stored[bus.ID] = *bus
	return nil
}

func (c *recordingCache) InvalidateBus(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stored, id)
	c.generations[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordingUsers struct {
	mu      sync.Mutex
	ensured []string
	err     error
}

func (u *recordingUsers) EnsureExists(_ context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.ensured = append(u.ensured, userID)
	return nil
}
