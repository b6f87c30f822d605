package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizbrawl/internal/arena"
	"quizbrawl/internal/cache"
	"quizbrawl/internal/config"
	"quizbrawl/internal/repository"
	"quizbrawl/internal/service"
	"quizbrawl/internal/transport/rest"
	"quizbrawl/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	game := config.LoadGame()
	log.Printf("Game config:")
	log.Printf("  Round:       %s", game.RoundDuration)
	log.Printf("  Inter-round: %s", game.InterRoundDelay)
	log.Printf("  Starting HP: %d", game.StartingHP)
	log.Printf("  Arena:       %.0fx%.0f", game.ArenaWidth, game.ArenaHeight)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	playerRepo := repository.NewPlayerRepo(db)
	resultRepo := repository.NewResultRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	playerCache := cache.NewPlayerCache(rdb)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	sessionSvc := service.NewSessionService(sessionRepo, sessionCache)
	tournamentSvc := service.NewTournamentService(game, playerCache, playerRepo, resultRepo, sessionRepo, sessionCache, leaderboard)

	// Initialize match engine (wsHub implements arena.Broadcaster)
	registry := arena.NewRegistry()
	matchmaker := arena.NewMatchmaker(game, tournamentSvc, wsHub, registry)

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		SessionService:    sessionSvc,
		TournamentService: tournamentSvc,
		Matchmaker:        matchmaker,
		Registry:          registry,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Printf("Host auth: username=%s", os.Getenv("HOST_USERNAME"))
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/sessions")
		log.Println("  POST /v1/sessions/{id}/start")
		log.Println("  POST /v1/sessions/{id}/join")
		log.Println("  POST /v1/sessions/{id}/players/{playerId}/quiz-result")
		log.Println("  GET  /v1/sessions/{id}/leaderboard")
		log.Println("  WS  /v1/ws/sessions/{id}/host")
		log.Println("  WS  /v1/ws/sessions/{id}/player")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
