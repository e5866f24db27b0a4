package main

import (
	"log"

	"github.com/MrSnakeDoc/bookaimark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ bookaimark failed: %v", err)
	}
}
