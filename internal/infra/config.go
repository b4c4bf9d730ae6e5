package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	VimeoClientID     string
	VimeoClientSecret string
	VimeoAccessToken  string

	WordPressURL         string
	WordPressUsername    string
	WordPressPassword    string
	WordPressCPT         string
	WordPressOptionsSlug string

	TelegramBotToken string
	TelegramChatID   string

	// DatabaseURL is optional; when empty the run-history store is disabled.
	DatabaseURL string

	// BotConfigPath points at an optional YAML file with trainer display
	// names and schedule times.
	BotConfigPath string

	InteractionTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from the environment (and .env files when
// present) and applies defaults where needed. Required keys fail with a
// precise message so a misconfigured deploy dies at startup, not mid-run.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		VimeoClientID:     os.Getenv("VIMEO_CLIENT_ID"),
		VimeoClientSecret: os.Getenv("VIMEO_CLIENT_SECRET"),
		VimeoAccessToken:  os.Getenv("VIMEO_ACCESS_TOKEN"),

		WordPressURL:         os.Getenv("WORDPRESS_URL"),
		WordPressUsername:    os.Getenv("WORDPRESS_USERNAME"),
		WordPressPassword:    os.Getenv("WORDPRESS_PASSWORD"),
		WordPressCPT:         os.Getenv("WORDPRESS_CPT"),
		WordPressOptionsSlug: getEnv("WORDPRESS_ACF_OPTIONS_SLUG", "options"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		BotConfigPath: os.Getenv("BOT_CONFIG_PATH"),

		InteractionTimeout: time.Minute * time.Duration(getEnvInt("INTERACTION_TIMEOUT_MINUTES", 120)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	required := []struct {
		key   string
		value string
	}{
		{"VIMEO_CLIENT_ID", cfg.VimeoClientID},
		{"VIMEO_CLIENT_SECRET", cfg.VimeoClientSecret},
		{"VIMEO_ACCESS_TOKEN", cfg.VimeoAccessToken},
		{"WORDPRESS_URL", cfg.WordPressURL},
		{"WORDPRESS_USERNAME", cfg.WordPressUsername},
		{"WORDPRESS_PASSWORD", cfg.WordPressPassword},
		{"WORDPRESS_CPT", cfg.WordPressCPT},
		{"TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken},
		{"TELEGRAM_CHAT_ID", cfg.TelegramChatID},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
