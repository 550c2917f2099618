// Command admintoken mints an admin bearer token for the order API.
//
//	ADMIN_JWT_SECRET=... go run ./cmd/tools/admintoken -subject ops@tindahan.ph
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tindahan-dev/backend-tindahan/internal/auth"
	"github.com/tindahan-dev/backend-tindahan/internal/config"
)

func main() {
	subject := flag.String("subject", "", "admin identity to embed in the token")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "admintoken: -subject is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}

	svc, err := auth.NewService(auth.Config{
		Secret:   cfg.AdminJWTSecret,
		TokenTTL: cfg.AdminTokenTTL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}

	signed, expiresAt, err := svc.IssueToken(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}
