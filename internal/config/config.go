package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBPath        string
	DBAutoMigrate bool
	DBLogSQL      bool

	EmpresaID string

	ArchiveType        string
	ArchiveDir         string
	ArchiveS3Bucket    string
	ArchiveS3Region    string
	ArchiveS3Endpoint  string
	ArchiveS3AccessKey string
	ArchiveS3SecretKey string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "conectcrm"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		DBPath:        getEnv("DB_PATH", "./triage.db"),
		DBAutoMigrate: getBool("DB_AUTO_MIGRATE", false),
		DBLogSQL:      getBool("DB_LOG_SQL", false),

		EmpresaID: getEnv("EMPRESA_ID", ""),

		ArchiveType:        getEnv("ARCHIVE_TYPE", ""),
		ArchiveDir:         getEnv("ARCHIVE_DIR", "./archive"),
		ArchiveS3Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
		ArchiveS3Region:    getEnv("ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Endpoint:  getEnv("ARCHIVE_S3_ENDPOINT", ""),
		ArchiveS3AccessKey: getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
		ArchiveS3SecretKey: getEnv("ARCHIVE_S3_SECRET_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
