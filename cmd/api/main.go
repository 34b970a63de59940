package main

import (
	"log/slog"
	"os"

	"github.com/metinatakli/cinema-booking-engine/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
