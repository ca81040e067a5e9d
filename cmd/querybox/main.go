package main

import (
	"log"

	"github.com/launchpane/querybox/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ querybox failed to start: %v", err)
	}
}
