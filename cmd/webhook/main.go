package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"

	"akses-bot/internal/config"
	"akses-bot/internal/database"
	"akses-bot/internal/store"
	"akses-bot/internal/webhook"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	handler := webhook.NewHandler(store.New(db), tgBot, rdb, cfg.MidtransServerKey, cfg.TargetChatID)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	handler.Register(r)

	log.Printf("Webhook receiver listening on port %s", cfg.WebhookPort)
	if err := r.Run(":" + cfg.WebhookPort); err != nil {
		log.Fatalf("Webhook server stopped: %v", err)
	}
}
