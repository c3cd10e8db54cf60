package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported DB_DRIVER values
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort    string        // Application port
	DBDriver   string        // mysql, postgres or sqlite
	DBUser     string        // Database user
	DBPassword string        // Database password
	DBHost     string        // Database host
	DBPort     string        // Database port
	DBName     string        // Database name
	DBPath     string        // SQLite file or DSN
	JWTSecret  string        // JWT secret key
	JWTTTL     time.Duration // Token lifetime
	RedisAddr  string        // Redis server address
	RedisPass  string        // Redis password
	RedisDB    int           // Redis database number
	CacheTTL   time.Duration // Lifetime of cached reads
	AMQPURL    string        // RabbitMQ URL, empty disables events
	AMQPQueue  string        // Queue balance events are published to
	MaxRetries int           // Attempts before a balance write gives up with a conflict
	LogLevel   string        // logrus level name
	IsProd     bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnvOrDefault("APP_PORT", "8000"),
		DBDriver:   getEnvOrDefault("DB_DRIVER", DriverMySQL),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		DBPath:     getEnvOrDefault("DB_PATH", "finance.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     getDurationOrDefault("JWT_TTL", 24*time.Hour),
		RedisAddr:  getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    redisDB,
		CacheTTL:   getDurationOrDefault("CACHE_TTL", 60*time.Second),
		AMQPURL:    os.Getenv("AMQP_URL"),
		AMQPQueue:  getEnvOrDefault("AMQP_QUEUE", "ledger_events"),
		MaxRetries: getIntOrDefault("LEDGER_MAX_RETRIES", 5),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		IsProd:     os.Getenv("IS_PROD") == "true",
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() (string, error) {
	switch c.DBDriver {
	case DriverMySQL:
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true", nil
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName), nil
	case DriverSQLite:
		return c.DBPath, nil
	}
	return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
