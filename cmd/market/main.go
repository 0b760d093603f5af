package main

import (
	"github.com/joho/godotenv"

	"github.com/jasperwreed/campus-market/internal/cli"
)

func main() {
	// A missing .env is fine; the shell environment still applies.
	_ = godotenv.Load()
	cli.Execute()
}
