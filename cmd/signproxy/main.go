package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/yolodolo42/signproxy/internal/cli"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
