// Command parley is a terminal client for the AI-audit chat backend.
//
// Usage:
//
//	parley chat --owner <client-id> [--backend-url URL] [--model gpt4]
//
// Configuration is resolved from flags, PARLEY_* environment variables
// and an optional config file, in that order of precedence. A .env file
// in the working directory is loaded when present.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional; a missing .env file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}
