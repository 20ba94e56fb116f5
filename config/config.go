package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	Teacher TeacherConfig
	QA      QAConfig
	Join    JoinConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,https://maravian.com)
}

// TeacherConfig holds the teacher-gate secret. PasswordHash (bcrypt) takes
// precedence over the plain Password when both are set.
type TeacherConfig struct {
	Password     string
	PasswordHash string
}

// QAConfig bounds the Q&A message history. HistoryLimit 0 keeps it unbounded.
type QAConfig struct {
	HistoryLimit int
}

// JoinConfig holds the join URL encoded into QR codes by default.
type JoinConfig struct {
	BaseURL string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8051"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Teacher: TeacherConfig{
			Password:     getEnv("TEACHER_PASSWORD", "change-me"),
			PasswordHash: getEnv("TEACHER_PASSWORD_HASH", ""),
		},
		QA: QAConfig{
			HistoryLimit: getEnvInt("QA_HISTORY_LIMIT", 0),
		},
		Join: JoinConfig{
			BaseURL: getEnv("JOIN_BASE_URL", "http://localhost:3000/game"),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
