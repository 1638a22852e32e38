package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration

	// NotifyPhone is the external notification channel address the
	// order summary deep-link is built from. Empty means the submit
	// flow fails with a configuration error.
	NotifyPhone string

	EtaBaseMinutes   int
	EtaBusyMinutes   int
	EtaBusyThreshold int

	OrderTxTimeout time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:         getEnvOrDefault("MONGO_URI", ""),
		DBName:           getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:   getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		NotifyPhone:      getEnvOrDefault("NOTIFY_PHONE", ""),
		EtaBaseMinutes:   getIntEnv("ETA_BASE_MINUTES", 30),
		EtaBusyMinutes:   getIntEnv("ETA_BUSY_MINUTES", 15),
		EtaBusyThreshold: getIntEnv("ETA_BUSY_THRESHOLD", 5),
		OrderTxTimeout:   getDurationEnv("ORDER_TX_TIMEOUT_SECONDS", 5, time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
