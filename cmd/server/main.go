package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snowbasin-backend/internal/api"
	"snowbasin-backend/internal/config"
	"snowbasin-backend/internal/handlers"
	"snowbasin-backend/internal/llm"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/internal/store/postgres"
	"snowbasin-backend/internal/transit"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting Snowbasin Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Initialize Dependencies (Store, Clients, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)
	log.Println("Postgres store initialized.")

	llmClient := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.ChatModel)
	log.Println("LLM client initialized.")

	transitClient := transit.NewClient(cfg.TransitBaseURL, cfg.TransitAPIKey)
	enricher := transit.NewEnricher(transitClient)
	log.Println("Transit enricher initialized.")

	authService := services.NewAuthService(pgStore, cfg)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(pgStore)
	log.Println("ChatService initialized.")

	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandlers(chatService)
	streamHandler := handlers.NewStreamHandlers(chatService, llmClient, enricher)
	log.Println("Handlers initialized.")

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:   authHandler,
		ChatHandler:   chatHandler,
		StreamHandler: streamHandler,
		Config:        cfg,
	})
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// No WriteTimeout: the chat stream stays open for the lifetime of a
		// model response and must not be cut off by the server.
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
