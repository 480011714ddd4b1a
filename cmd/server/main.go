package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shop-admin/internal/api"
	"github.com/shop-admin/internal/audit"
	"github.com/shop-admin/internal/config"
	"github.com/shop-admin/internal/middleware"
	"github.com/shop-admin/internal/storage"
	"github.com/shop-admin/internal/upload"

	_ "github.com/shop-admin/docs" // swagger docs
)

// @title Shop Admin API
// @version 1.0
// @description E-commerce administration backend: JWT-authenticated user accounts, role-gated admin views, and product CRUD with image-file attachments.

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your JWT token with the `Bearer ` prefix, e.g. "Bearer eyJhbGci..."

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	log.Println("Connecting to database...")
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running migrations...")
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	productRepo := storage.NewProductRepository(db)

	// Create default admin user if not exists
	ctx := context.Background()
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		admin, err := userRepo.CreateAdmin(ctx, "admin", adminEmail, adminPassword)
		if err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Printf("Admin user ready: %s", admin.Email)
		}
	}

	// Initialize upload store
	uploads := upload.NewStore(cfg.Upload.Dir)

	// Start the orphaned-file audit
	auditor := audit.New(productRepo, cfg.Upload.Dir)
	if err := auditor.Start(cfg.Audit.Schedule); err != nil {
		log.Fatalf("Failed to start upload audit: %v", err)
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT, userRepo)

	// Initialize API handlers
	handler := api.NewHandler(userRepo, productRepo, uploads, authMiddleware)

	// Setup router
	router := api.NewRouter(handler, authMiddleware, cfg.Upload.Dir)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Stop the audit scheduler
	auditor.Stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
