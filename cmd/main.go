package main

import (
	"log"
	"os"

	"github.com/Engineernoob/Term-Mail/internal/api"
	"github.com/Engineernoob/Term-Mail/internal/cli"
	"github.com/Engineernoob/Term-Mail/internal/config"
	"github.com/Engineernoob/Term-Mail/internal/localstore"
	"github.com/Engineernoob/Term-Mail/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Open the local mail store
	store, err := localstore.Open(cfg.DataDir, cfg.GetEncryptionKey())
	if err != nil {
		log.Fatalf("Failed to open local mail store: %v", err)
	}

	// Initialize services
	logService, err := services.NewLogServiceWithLevel(store.DB(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize log service: %v", err)
	}
	accountService, err := services.NewAccountService(cfg, store, logService)
	if err != nil {
		log.Fatalf("Failed to initialize accounts: %v", err)
	}

	// Check if running CLI command
	if len(os.Args) > 1 {
		cli.Execute(accountService, cfg)
		return
	}

	mailService := services.NewMailService(accountService, logService)

	// Start API server
	router, apiKeyManager, err := api.SetupRouter(cfg, accountService, mailService, logService)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	log.Printf("Starting Term-Mail server on port %s", cfg.APIPort)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Accounts: %d", len(accountService.Accounts()))
	log.Printf("API Key: %s", apiKeyManager.GetCurrentKey())
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
