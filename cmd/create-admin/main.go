package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/config"
	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-admin/main.go <external-uid> <email> <api-key>")
		fmt.Println("Example: go run cmd/create-admin/main.go \"admin-uid-1\" \"ops@example.com\" \"admin-api-key-12345\"")
		os.Exit(1)
	}

	externalUID := os.Args[1]
	email := os.Args[2]
	apiKey := os.Args[3]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	hash := string(apiKeyHash)
	admin := &domain.User{
		ExternalUID: externalUID,
		Email:       email,
		Role:        domain.RoleAdmin,
		APIKeyHash:  &hash,
	}

	if err := repos.User.Create(context.Background(), admin); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin created successfully!\n\n")
	fmt.Printf("User ID: %s\n", admin.ID.String())
	fmt.Printf("External UID: %s\n", admin.ExternalUID)
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\nSave this API key securely, it cannot be shown again.\n")
}
