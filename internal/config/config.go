package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr         string
	DBPath             string
	PhotoPath          string
	JWTSecret          string
	TokenExpiryMinutes int
	SignedURLSecret    string
	SignedURLMinutes   int
	MinFrontendVersion string
	VisionBackend      string
	ClaudeAPIKey       string
	ClaudeModel        string
	LogLevel           string
	LogFile            string
	AdminUsername      string
	AdminPassword      string
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "/data/potterylog.db"),
		PhotoPath:          getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		JWTSecret:          getEnv("JWT_SECRET_KEY", ""),
		TokenExpiryMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
		SignedURLSecret:    getEnv("SIGNED_URL_SECRET", ""),
		SignedURLMinutes:   getEnvInt("SIGNED_URL_EXPIRATION_MINUTES", 15),
		MinFrontendVersion: getEnv("MIN_FRONTEND_VERSION", "0.1.0"),
		VisionBackend:      getEnv("VISION_BACKEND", ""),
		ClaudeAPIKey:       getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:        getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
	}

	// Photo URLs are signed with their own secret when one is configured,
	// otherwise the JWT secret doubles as the signing key.
	if cfg.SignedURLSecret == "" {
		cfg.SignedURLSecret = cfg.JWTSecret
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
