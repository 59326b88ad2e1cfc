package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/rollhouse/voice-relay/config"
	"github.com/rollhouse/voice-relay/internal/handlers"
	"github.com/rollhouse/voice-relay/internal/middleware"
	"github.com/rollhouse/voice-relay/internal/redis"
	"github.com/rollhouse/voice-relay/internal/relay"
	"github.com/rollhouse/voice-relay/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	// Postgres holds the friend table and the call audit log
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs presence tracking
	if err := redis.Connect(cfg.Redis); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	log.Println("Postgres and Redis connections established")

	rl := relay.New(relay.Config{
		Friends: store,
		Audit:   store,
		Relay:   cfg.Relay,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Staleness sweep runs until shutdown
	go rl.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(handlers.CORS())
	router.NoRoute(handlers.NotFound)

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Dev login (the game backend issues tokens in production)
	router.POST("/auth/login", handlers.Login(cfg.JWTSecret))

	voice := router.Group("/voice", middleware.BearerAuth(cfg.JWTSecret))
	{
		voice.POST("/signal", handlers.SubmitSignal(rl))
		voice.GET("/signals", handlers.FetchSignals(rl))
		voice.POST("/start", handlers.StartCall(rl))
		voice.POST("/end", handlers.EndCall(rl))
		voice.POST("/presence", handlers.Heartbeat(cfg.PresenceTTL))
		voice.GET("/presence", handlers.CheckPresence())
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting voice relay on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
