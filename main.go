package main

import (
	"context"
	"time"

	"marketplace-app/config"
	"marketplace-app/database"
	adminapi "marketplace-app/internal/api/admin"
	authapi "marketplace-app/internal/api/auth"
	lessonsapi "marketplace-app/internal/api/lessons"
	purchasesapi "marketplace-app/internal/api/purchases"
	reviewsapi "marketplace-app/internal/api/reviews"
	stripewebhooks "marketplace-app/internal/api/stripewebhook"
	usersapi "marketplace-app/internal/api/users"
	routes "marketplace-app/internal/app/http"
	"marketplace-app/internal/infra/cache"
	"marketplace-app/internal/infra/storage"
	"marketplace-app/internal/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v75"
)

func main() {
	config.LoadEnv()

	log, err := logger.New(config.APP_ENV)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(config.DB_URL)
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}

	stripe.Key = config.STRIPE_SECRET_KEY

	videoTTL, err := time.ParseDuration(config.VIDEO_URL_TTL)
	if err != nil {
		log.Fatal("invalid VIDEO_URL_TTL", "value", config.VIDEO_URL_TTL, "error", err)
	}
	videos, err := storage.NewGCSVideoStore(context.Background(), config.GCS_BUCKET, videoTTL, log)
	if err != nil {
		log.Fatal("video store init failed", "error", err)
	}

	// Redis is optional; without it the stats cache degrades to a no-op.
	var rdb *redis.Client
	if config.REDIS_ADDR != "" {
		rdb = redis.NewClient(&redis.Options{Addr: config.REDIS_ADDR})
	}
	statsTTL, err := time.ParseDuration(config.STATS_CACHE_TTL)
	if err != nil {
		log.Fatal("invalid STATS_CACHE_TTL", "value", config.STATS_CACHE_TTL, "error", err)
	}
	stats := cache.NewStatsCache(rdb, statsTTL, log)

	authHandler := authapi.NewHandler(db, log, config.JWT_SECRET)
	if config.GOOGLE_CLIENT_ID != "" {
		authHandler = authHandler.WithGoogle(config.GOOGLE_CLIENT_ID, config.GOOGLE_CLIENT_SECRET, config.GOOGLE_REDIRECT_URL)
	}

	handlers := routes.Handlers{
		Auth:      authHandler,
		Users:     usersapi.NewHandler(db, log),
		Lessons:   lessonsapi.NewHandler(db, log, videos, stats),
		Purchases: purchasesapi.NewHandler(db, log, config.APP_URL),
		Reviews:   reviewsapi.NewHandler(db, log, stats),
		Webhook:   stripewebhooks.NewHandler(db, log, stats, config.STRIPE_WEBHOOK_SECRET),
		Admin:     adminapi.NewHandler(db, log),
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, handlers, config.JWT_SECRET)

	log.Info("listening", "port", config.PORT)
	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
