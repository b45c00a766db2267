// migrate applies or rolls back the embedded SQL migrations, or prints the current version.
// Usage: go run ./cmd/migrate [-direction up|down] [-version]
package main

import (
	"flag"
	"fmt"
	"os"

	"auth-service/internal/config"
	"auth-service/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "Migration direction: up or down")
	showVersion := flag.Bool("version", false, "Print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	if *showVersion {
		version, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		return
	}

	// Run treats "no change" as success.
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
