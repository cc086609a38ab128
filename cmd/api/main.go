package main

import (
	"context"
	"log"

	"safeballot/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config, including the ballot encryption key.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	log.Println("safeballot api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("safeballot api stopped with error: %v", err)
	}
}
