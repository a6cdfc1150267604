package main

import (
	"log"

	"github.com/stashspark/stashspark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("stashspark failed to start: %v", err)
	}
}
