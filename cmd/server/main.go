package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"swap-backend/internal/app"
	"swap-backend/internal/config"
	"swap-backend/internal/db"
	"swap-backend/internal/handlers"
	"swap-backend/internal/middleware"
	"swap-backend/internal/router"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db.InitDB()

	container, err := app.InitializeContainer()
	if err != nil {
		log.Fatalf("Failed to initialize service container: %v", err)
	}
	defer container.Cleanup()

	h := router.Handlers{
		Quote: handlers.NewQuoteHandler(container.QuoteService),
		Swap: handlers.NewSwapHandler(
			container.QuoteService,
			container.Orchestrator,
			container.Policy,
			container.EntryPoint,
			container.Paymaster,
			container.Delegate,
			container.ChainID,
			container.SwapAttemptRepo,
		),
		Admin: handlers.NewAdminHandler(container.QuoteArchiveRepo, container.SwapAttemptRepo),
		Auth:  middleware.NewAuthMiddleware(logger, cfg.Admin.JWTSecret),
	}

	r := router.SetupRouter(logger, h)

	// Cleanup on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("🛑 Received %s, shutting down...", sig)
		container.Cleanup()
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 [Server] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
