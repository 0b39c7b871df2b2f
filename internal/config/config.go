package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
	GinMode  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type StorageConfig struct {
	URL            string
	ServiceRoleKey string
	FileBucket     string
	ImageBucket    string
}

type AuthConfig struct {
	MinPasswordLength int
}

func New() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "chatroom_db"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		Storage: StorageConfig{
			URL:            getEnv("STORAGE_URL", ""),
			ServiceRoleKey: getEnv("STORAGE_SERVICE_ROLE_KEY", ""),
			FileBucket:     getEnv("STORAGE_FILE_BUCKET", "chat-files"),
			ImageBucket:    getEnv("STORAGE_IMAGE_BUCKET", "chat-images"),
		},
		Auth: AuthConfig{
			MinPasswordLength: getEnvInt("MIN_PASSWORD_LENGTH", 8),
		},
		GinMode: getEnv("GIN_MODE", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (c *Config) GetDatabaseURL() string {
	var sb strings.Builder

	sb.WriteString("postgres://")
	sb.WriteString(c.Database.User)
	if c.Database.Password != "" {
		sb.WriteString(":")
		sb.WriteString(c.Database.Password)
	}
	sb.WriteString("@")
	sb.WriteString(c.Database.Host)
	sb.WriteString(":")
	sb.WriteString(c.Database.Port)
	sb.WriteString("/")
	sb.WriteString(c.Database.DBName)

	if c.Database.SSLMode != "" {
		sb.WriteString("?sslmode=")
		sb.WriteString(c.Database.SSLMode)
	}

	return sb.String()
}

func (c *Config) GetCORSOrigins() []string {
	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	return strings.Split(origins, ",")
}
