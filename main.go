package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/campusqa/campusqa/cmd"
)

func main() {
	// Best-effort: a missing .env file is fine, config has defaults.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
