package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stacks/internal/catalog"
	"github.com/gravitas-games/stacks/internal/config"
	"github.com/gravitas-games/stacks/internal/logging"
	"github.com/gravitas-games/stacks/internal/server"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	l := logging.New(cfg.Log)
	l.Info("Starting inventory server...")
	l.WithField("path", configPath).Info("Configuration loaded")

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		l.WithError(err).Fatal("Failed to load item catalog")
	}
	l.WithFields(logrus.Fields{"path": cfg.Catalog.Path, "items": cat.Len()}).Info("Item catalog loaded")

	// Create and initialize server
	srv, err := server.New(cfg, cat, l)
	if err != nil {
		l.WithError(err).Fatal("Failed to create server")
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		l.Infof("Server listening on %s", addr)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		l.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		l.Infof("Received signal %v, shutting down...", sig)
	}

	// Graceful shutdown
	if err := srv.Shutdown(); err != nil {
		l.WithError(err).Error("Error during shutdown")
	}

	l.Info("Server stopped")
}
