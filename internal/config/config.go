package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for uploaded CSV files.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ReconcileConfig controls the periodic status reconciler.
type ReconcileConfig struct {
	Schedule   string // cron expression
	PageSize   int    // records fetched per cursor page
	WriteBatch int    // status updates written per chunk
	TimeZone   string // scheduler timezone
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port             string
	OwnerTimeZone    string // timezone anchoring due-date and overdue math
	PresignExpiryHrs int    // lifetime of file_url provenance links
	Database         DatabaseConfig
	MinIO            MinIOConfig
	Reconcile        ReconcileConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the .env file.
func Load() *AppConfig {
	return &AppConfig{
		Port:             getEnv("PORT", "8080"),
		OwnerTimeZone:    getEnv("OWNER_TIMEZONE", "UTC"),
		PresignExpiryHrs: getEnvInt("PRESIGN_EXPIRY_HOURS", 168),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Reconcile: ReconcileConfig{
			Schedule:   getEnv("RECONCILE_SCHEDULE", "0 * * * *"), // hourly
			PageSize:   getEnvInt("RECONCILE_PAGE_SIZE", 100),
			WriteBatch: getEnvInt("RECONCILE_WRITE_BATCH", 50),
			TimeZone:   getEnv("RECONCILE_TIMEZONE", "UTC"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
