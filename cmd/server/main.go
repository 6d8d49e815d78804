package main

import (
	"log"

	approuters "github.com/vinayak-88/LoviNova/internal/app_routers"
	"github.com/vinayak-88/LoviNova/internal/configuration"
)

func main() {
	container, err := configuration.BuildContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
