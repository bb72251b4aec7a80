package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is every runtime knob, loaded from the environment once at startup.
type Config struct {
	Port int
	Env  string // development | test | production

	LogLevel  string
	LogFormat string // text | json

	DatabaseFile string

	JWTSecret          string
	RefreshTokenSecret string
	TokenIssuer        string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	ClientURL string

	UploadDir     string
	MaxUploadSize int64

	MailAPIKey     string
	MailSenderName string
	MailSenderAddr string
	PushServerKey  string

	ShutdownGracePeriod time.Duration
}

// LoadConfig reads configuration from the environment. The two token secrets
// are the only required values; everything else has a development default.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                getEnvInt("PORT", 8080),
		Env:                 getEnvOrDefault("ENV", "development"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "text"),
		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "urbanassist.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		RefreshTokenSecret:  os.Getenv("REFRESH_TOKEN_SECRET"),
		TokenIssuer:         getEnvOrDefault("TOKEN_ISSUER", "urbanassist"),
		AccessTokenTTL:      getEnvDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL:     getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		ClientURL:           getEnvOrDefault("CLIENT_URL", "http://localhost:3000"),
		UploadDir:           getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadSize:       int64(getEnvInt("MAX_UPLOAD_SIZE", 5<<20)),
		MailAPIKey:          os.Getenv("MAIL_API_KEY"),
		MailSenderName:      getEnvOrDefault("MAIL_SENDER_NAME", "UrbanAssist"),
		MailSenderAddr:      getEnvOrDefault("MAIL_SENDER_ADDR", "no-reply@urbanassist.local"),
		PushServerKey:       os.Getenv("PUSH_SERVER_KEY"),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if cfg.JWTSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("JWT_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
