package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken          string
	MidtransServerKey string
	MidtransAPIURL    string
	Price             int
	TargetChatID      int64
	AdminIDs          []int64
	OrderIDPrefix     string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	WebhookPort       string
	GinMode           string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		BotToken:          getEnv("TELEGRAM_TOKEN", ""),
		MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransAPIURL:    getEnv("MIDTRANS_API_URL", ""),
		Price:             getEnvInt("PRICE", 0),
		TargetChatID:      getEnvInt64("TARGET_CHAT_ID", 0),
		AdminIDs:          parseAdminIDs(getEnv("ADMIN_IDS", "")),
		OrderIDPrefix:     getEnv("ORDER_ID_PREFIX", "TELEGRAM"),
		DBHost:            getEnv("DB_HOST", ""),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "akses_bot"),
		RedisHost:         getEnv("REDIS_HOST", ""),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		WebhookPort:       getEnv("WEBHOOK_PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "release"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate reports the first missing required value.
func (c *Config) Validate() error {
	switch {
	case c.BotToken == "":
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	case c.MidtransServerKey == "":
		return fmt.Errorf("MIDTRANS_SERVER_KEY is required")
	case c.MidtransAPIURL == "":
		return fmt.Errorf("MIDTRANS_API_URL is required")
	case c.Price <= 0:
		return fmt.Errorf("PRICE must be a positive integer")
	case c.TargetChatID == 0:
		return fmt.Errorf("TARGET_CHAT_ID is required")
	}
	return nil
}

// IsAdmin reports whether the given Telegram user id is in the admin allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Skipping invalid admin id %q: %v", part, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
