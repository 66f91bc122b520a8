package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	JWTSecret   string
	BlobDir     string
	BlobBaseURL string
}

func Load() *Config {
	// A local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "orbit"),
		DBPassword:  getEnv("DB_PASSWORD", "orbit_dev_password"),
		DBName:      getEnv("DB_NAME", "orbit"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		BlobDir:     getEnv("BLOB_DIR", "./data/blobs"),
		BlobBaseURL: getEnv("BLOB_BASE_URL", "http://localhost:8080/media"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
