package main

import (
	"log"

	"akses-bot/internal/bot"
	"akses-bot/internal/config"
	"akses-bot/internal/database"
	"akses-bot/internal/midtrans"
	"akses-bot/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	midtransClient := midtrans.NewClient(cfg.MidtransServerKey, cfg.MidtransAPIURL)
	txStore := store.New(db)

	b, err := bot.NewBot(cfg, midtransClient, txStore)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	b.Start()
}
