package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ar-collections-service/cmd/collections/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Local development reads DATABASE_URL and friends from .env.
	_ = godotenv.Load()

	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
