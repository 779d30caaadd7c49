package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"carsales/internal/app"
)

// Embedded dashboard page and assets
//
//go:embed all:frontend
var frontendFiles embed.FS

func frontendFS() (fs.FS, error) {
	return fs.Sub(frontendFiles, "frontend")
}

func main() {
	frontend, err := frontendFS()
	if err != nil {
		slog.Error("Frontend embedding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(frontend)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
