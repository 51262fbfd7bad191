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

	"github.com/redis/go-redis/v9"

	"rag-chat/internal/config"
	"rag-chat/internal/database"
	"rag-chat/internal/handlers"
	"rag-chat/internal/middleware"
	"rag-chat/internal/repository"
	"rag-chat/internal/router"
	"rag-chat/internal/services"
	"rag-chat/internal/websocket"
)

func main() {
	log.Println("🚀 Starting RAG Chat...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Session Store ────
	var redisClient *redis.Client
	var store services.TranscriptStore
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer client.Close()
		redisClient = client
		store = repository.NewRedisTranscriptRepo(client, cfg.SessionTTL)
		log.Println("✓ Redis session store connected")
	} else {
		memStore := repository.NewMemoryTranscriptRepo(cfg.SessionTTL)
		defer memStore.Close()
		store = memStore
		log.Println("✓ In-memory session store ready")
	}

	// ──── Step 3: Initialize Serving Client ────
	deployment, err := services.NewDatabricksDeployment(cfg.DatabricksHost, cfg.DatabricksToken, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("✗ Serving client initialization failed: %v", err)
	}
	servingClient := services.NewServingClient(cfg.ServingEndpoint, cfg.MaxTokens, deployment)
	log.Printf("✓ Serving endpoint %q configured", servingClient.Endpoint())

	questions, err := services.LoadQuestions(cfg.QuestionsFile)
	if err != nil {
		log.Fatalf("✗ Suggested questions failed to load: %v", err)
	}

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Services ────
	conversation := services.NewConversationService(servingClient)
	chatService := services.NewChatService(store, conversation, questions, wsHub, cfg.MaxTokens, cfg.RequestTimeout)

	// ──── Initialize Handlers ────
	renderer := services.NewMarkdownRenderer()
	chatHandler := handlers.NewChatHandler(chatService, renderer, servingClient.Endpoint())
	pageHandler := handlers.NewPageHandler(chatService, servingClient.Endpoint())

	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionTTL, cfg.Env == "production")
	chatLimiter := middleware.NewRateLimiter(cfg.ChatRatePerMinute, cfg.ChatRateBurst)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		chatLimiter,
		pageHandler,
		chatHandler,
		wsHub,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second, // chat blocks for the endpoint round trip
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ RAG Chat ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
