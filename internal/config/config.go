package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port            string
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RedisURL        string
	CartTTL         time.Duration
	CORSOrigins     []string
	PricingFile     string
	OTelExporter    string
	OTelEndpoint    string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = fromEnv()
}

func fromEnv() Config {
	return Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "localserve"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		RedisURL:        getEnvOrDefault("REDIS_URL", ""),
		CartTTL:         getDurationEnv("CART_TTL", 72, time.Hour),
		CORSOrigins:     getListEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		PricingFile:     getEnvOrDefault("PRICING_FILE", ""),
		OTelExporter:    getEnvOrDefault("OTEL_EXPORTER", "none"),
		OTelEndpoint:    getEnvOrDefault("OTEL_ENDPOINT", "localhost:4317"),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
