package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"localserve/internal/cart"
	"localserve/internal/config"
	"localserve/internal/database"
	"localserve/internal/handlers"
	"localserve/internal/idempotency"
	"localserve/internal/middleware"
	"localserve/internal/telemetry"
)

const idempotencyWindow = 10 * time.Minute

func main() {
	config.Load()
	if err := config.AppEnv.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "localserve", config.AppEnv.OTelExporter, config.AppEnv.OTelEndpoint)
	if err != nil {
		log.Fatal(err)
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureRefreshTokenIndexes(db); err != nil {
		log.Printf("refresh token index warning: %v", err)
	}

	rates, err := config.LoadPricingRates(config.AppEnv.PricingFile)
	if err != nil {
		log.Fatal(err)
	}

	var (
		carts  cart.Store
		claims idempotency.Claimer
	)
	if config.AppEnv.RedisURL != "" {
		rdb, err := database.ConnectRedis(config.AppEnv.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		defer rdb.Close()
		log.Println("Redis connected, carts and idempotency keys stored in Redis")
		carts = cart.NewRedisStore(rdb, config.AppEnv.CartTTL)
		claims = idempotency.NewRedisStore(rdb, idempotencyWindow)
	} else {
		log.Println("REDIS_URL not set, carts and idempotency keys kept in memory")
		carts = cart.NewMemoryStore()
		claims = idempotency.NewMemoryStore(idempotencyWindow)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AppEnv.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CartSessionHeader, handlers.IdempotencyHeader},
		ExposeHeaders:    []string{middleware.CartSessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	users := database.NewUserStore(db)
	handlers.RegisterRoutes(r, handlers.Deps{
		Ping: func(ctx context.Context) error { return database.Ping(ctx, db) },
		Tokens: handlers.TokenConfig{
			Secret:     config.AppEnv.JWTSecret,
			AccessTTL:  config.AppEnv.AccessTokenTTL,
			RefreshTTL: config.AppEnv.RefreshTokenTTL,
		},
		Accounts:      users,
		RefreshTokens: database.NewRefreshTokenStore(db),
		Carts:         carts,
		Orders:        database.NewOrderStore(db),
		Bookings:      database.NewBookingStore(db),
		Users:         users,
		Claims:        claims,
		Rates:         rates,
	})

	srv := &http.Server{
		Addr:              ":" + config.AppEnv.Port,
		Handler:           telemetry.Handler(r, "localserve"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("listening on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("server shutdown error:", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Println("tracer shutdown error:", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Println("mongo disconnect error:", err)
	}
}
