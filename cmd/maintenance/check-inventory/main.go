package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/config"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

// check-inventory compares every bus counter with its active bookings and
// exits with status 2 when any bus drifts.
func main() {
	var (
		dbURLFlag string
		driver    string
		timeout   time.Duration
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driver, "driver", "postgres", "database driver: postgres or pgx")
	flag.DurationVar(&timeout, "timeout", time.Minute, "query timeout")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             driver,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	drift, err := services.NewReconciliationService(database.NewReportRepository(db), logger).Run(ctx)
	if err != nil {
		log.Fatalf("reconciliation failed: %v", err)
	}

	if len(drift) == 0 {
		fmt.Println("All bus seat counters match their bookings.")
		return
	}

	fmt.Printf("%d bus(es) drifting:\n", len(drift))
	for _, d := range drift {
		fmt.Printf("  %s (%s): available=%d expected=%d booked=%d total=%d\n",
			d.BusNumber, d.BusID, d.SeatsAvailable, d.ExpectedSeats, d.SeatsBooked, d.TotalSeats)
	}
	cancel()
	db.Close()
	os.Exit(2)
}
