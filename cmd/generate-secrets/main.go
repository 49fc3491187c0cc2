// Command generate-secrets prints HS256 signing secrets for the booking API.
// JWT_SECRET must match the identity service that issues access tokens;
// JWT_REFRESH_SECRET is only needed by operator tooling that mints
// refresh tokens through pkg/jwt.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/smarttransit/bus-booking-backend/internal/utils"
)

func main() {
	export := flag.Bool("export", false, "prefix lines with export for shell use")
	flag.Parse()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	prefix := ""
	if *export {
		prefix = "export "
	}

	fmt.Println("# Token secrets for bus-booking-backend. Share JWT_SECRET with the token issuer.")
	fmt.Printf("%sJWT_SECRET=%s\n", prefix, accessSecret)
	fmt.Printf("%sJWT_REFRESH_SECRET=%s\n", prefix, refreshSecret)
}
