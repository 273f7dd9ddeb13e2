package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studynotes-backend/internal/config"
	"studynotes-backend/internal/database"
	"studynotes-backend/internal/handlers"
	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/repository"
	"studynotes-backend/internal/router"
	"studynotes-backend/internal/services"
	"studynotes-backend/internal/tracing"
	"studynotes-backend/internal/websocket"
	"studynotes-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	handlers.SetLogger(log)
	log.Info("starting studynotes backend", "env", cfg.Env)

	shutdownTracing, err := tracing.Init(cfg.TracingEnabled, "studynotes-backend")
	if err != nil {
		log.Fatal("tracing initialization failed", "error", err)
	}

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	gemini, err := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, log)
	if err != nil {
		log.Fatal("gemini client initialization failed", "error", err)
	}
	defer gemini.Close()
	log.Info("gemini client initialized", "model", cfg.GeminiModel, "concurrency", cfg.GeminiConcurrentReqs)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL, log)
	tokenStore := services.NewRedisTokenStore(redisClients.Cache)
	publisher := services.NewRedisPublisher(redisClients.PubSub)
	grader := services.NewAnswerGrader(gemini, log)

	mailQueue := worker.NewRedisQueue(redisClients.Cache)

	authService := services.NewAuthService(userRepo, flashcardRepo, tokenStore, jwtAuth, mailQueue, log)
	noteService := services.NewNoteService(noteRepo, services.NewFileExtractService(), services.NewYouTubeService())
	llmService := services.NewLLMService(noteRepo, flashcardRepo, gemini, grader, log)
	quizService := services.NewQuizService(noteRepo, flashcardRepo, quizRepo, grader, publisher, log)

	// ──── Step 6: Start Email Worker Pool ────
	workerPool := worker.NewPool(mailQueue, emailService, log, cfg.EmailWorkers)
	workerPool.Start()

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(websocket.NewRedisSubscriber(redisClients.PubSub), jwtAuth, log)
	defer wsHub.Close()

	// ──── Step 8: Start HTTP Server ────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)
	defer authLimiter.Stop()

	ready := func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return redisClients.Cache.Ping(ctx).Err()
	}

	r := router.New(jwtAuth, authLimiter, router.Handlers{
		Auth:  handlers.NewAuthHandler(authService),
		User:  handlers.NewUserHandler(authService),
		Note:  handlers.NewNoteHandler(noteService),
		LLM:   handlers.NewLLMHandler(llmService),
		Quiz:  handlers.NewQuizHandler(quizService),
		WS:    wsHub.HandleWebSocket,
		Ready: ready,
	}, cfg.FrontendURL, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		workerPool.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("http server shutdown failed", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	log.Info("studynotes backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
	<-done
}
