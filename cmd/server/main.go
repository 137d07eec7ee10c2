package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cuckoo-backend/internal/config"
	"cuckoo-backend/internal/database"
	"cuckoo-backend/internal/handlers"
	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/quiz"
	"cuckoo-backend/internal/repository"
	"cuckoo-backend/internal/router"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/internal/views"
	"cuckoo-backend/internal/websocket"
	"cuckoo-backend/migrations"
)

func main() {
	log.Println("🚀 Starting Cuckoo...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	var migrationFS fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		migrationFS = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.RunMigrations(ctx, pool, migrationFS); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	commentRepo := repository.NewCommentRepo(pool)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub)
	defer wsHub.Close()
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Services ────
	revocations := services.NewTokenRevocations(redisClients.KV)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.TokenTTL, revocations)
	authService := services.NewAuthService(userRepo, revocations, jwtAuth)
	questionService := services.NewQuestionService(questionRepo, commentRepo, wsHub)

	machine := quiz.NewMachine(
		quiz.NewRedisStore(redisClients.KV, cfg.QuizSessionTTL),
		quiz.WithSize(cfg.QuizSize),
	)

	renderer, err := views.New()
	if err != nil {
		log.Fatalf("✗ Template parsing failed: %v", err)
	}
	log.Println("✓ Templates loaded")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, renderer, cfg.IsProduction())
	pageHandler := handlers.NewPageHandler(questionService, renderer)
	apiHandler := handlers.NewAPIHandler(questionService)
	quizHandler := handlers.NewQuizHandler(machine, questionService, renderer, cfg.QuizSize)

	// ──── Step 6: Start HTTP Server ────
	health := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return redisClients.Ping(ctx)
	}
	r := router.New(
		jwtAuth,
		authHandler,
		pageHandler,
		apiHandler,
		quizHandler,
		wsHub,
		router.Options{
			QuizSessionTTL: cfg.QuizSessionTTL,
			SecureCookies:  cfg.IsProduction(),
			Health:         health,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Cuckoo ready on http://localhost:%s", cfg.Port)
	log.Printf("  API:  http://localhost:%s/api/questions/", cfg.Port)
	log.Printf("  Quiz: http://localhost:%s/quiz/start", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
