package main

import (
	"context"                          // context package is needed for Redis operations
	"finance_tracker/internal/api"     // Custom package for API handlers
	"finance_tracker/internal/config"  // Custom package for configuration
	"finance_tracker/internal/db"      // Database connection
	"finance_tracker/internal/events"  // Balance event publishing
	"finance_tracker/internal/ledger"  // Balance engine
	"finance_tracker/internal/logging" // Logger setup

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig()              // Load configuration
	logging.Setup(cfg.LogLevel, cfg.IsProd) // Setup logger

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the configured database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Publish balance events to RabbitMQ when configured
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			logrus.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	svc := ledger.NewService(gdb, publisher, cfg.MaxRetries) // Balance engine
	r := api.NewRouter(cfg, gdb, redisClient, svc)           // Gin router with every route

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
