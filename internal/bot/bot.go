package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"akses-bot/internal/config"
	"akses-bot/internal/midtrans"
	"akses-bot/internal/store"
)

const defaultBroadcastDelay = 100 * time.Millisecond

type Bot struct {
	Instance       *telego.Bot
	Midtrans       *midtrans.Client
	Store          *store.Store
	Config         *config.Config
	BroadcastDelay time.Duration
}

func NewBot(cfg *config.Config, midtransClient *midtrans.Client, txStore *store.Store) (*Bot, error) {
	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance:       tgBot,
		Midtrans:       midtransClient,
		Store:          txStore,
		Config:         cfg,
		BroadcastDelay: defaultBroadcastDelay,
	}, nil
}

// createCharge generates an order id, asks Midtrans to create the charge and,
// only when the gateway accepted it, records the pending transaction.
func (b *Bot) createCharge(ctx context.Context, userID int64, method string) (*midtrans.ChargeResponse, error) {
	orderID := midtrans.NewOrderID(b.Config.OrderIDPrefix, userID)

	resp, err := b.Midtrans.CreateCharge(ctx, orderID, b.Config.Price, method)
	if err != nil {
		return nil, fmt.Errorf("midtrans charge failed: %w", err)
	}
	if resp.OrderID == "" {
		resp.OrderID = orderID
	}

	if err := b.Store.CreateTransaction(orderID, userID, b.Config.Price); err != nil {
		return nil, err
	}

	log.Printf("Created %s transaction for order_id: %s", method, orderID)
	return resp, nil
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// /start command
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("✅ Beli Akses").WithCallbackData("buy_access"),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			startMessage(message.From.FirstName, b.Config.Price),
		).WithParseMode(telego.ModeHTML).WithReplyMarkup(keyboard))
		return nil
	}, th.CommandEqual("start"))

	// /broadcast command (admin only)
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		userID := message.From.ID

		if !b.Config.IsAdmin(userID) {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(message.Chat.ID),
				"Anda tidak memiliki izin untuk menggunakan perintah ini.",
			))
			return nil
		}

		text := ""
		if parts := strings.SplitN(message.Text, " ", 2); len(parts) > 1 {
			text = strings.TrimSpace(parts[1])
		}
		if text == "" {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(message.Chat.ID),
				"Silakan berikan pesan untuk di-broadcast.\nContoh: /broadcast Halo semua, ada info penting!",
			))
			return nil
		}

		userIDs, err := b.Store.ListDistinctUserIDs()
		if err != nil {
			log.Printf("Failed to list broadcast recipients: %v", err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(message.Chat.ID),
				"❌ Gagal mengambil daftar pengguna dari database.",
			))
			return nil
		}
		if len(userIDs) == 0 {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(message.Chat.ID),
				"Tidak ada pengguna yang ditemukan di database untuk di-broadcast.",
			))
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("Memulai broadcast ke %d pengguna... Ini mungkin memakan waktu.", len(userIDs)),
		))

		success, fail := broadcastMessage(ctx.Context(), ctx.Bot(), userIDs, text, b.BroadcastDelay)
		log.Printf("Broadcast finished: success=%d fail=%d", success, fail)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			broadcastSummary(success, fail),
		).WithParseMode(telego.ModeHTML))
		return nil
	}, th.CommandEqual("broadcast"))

	// Callback: buy access -> payment method menu
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("💳 Virtual Account").WithCallbackData("choose_va"),
			),
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("📱 QRIS").WithCallbackData("choose_qris"),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Silakan pilih metode pembayaran:",
		).WithReplyMarkup(keyboard))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("buy_access"))

	// Callback: QRIS payment
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			"⏳ Sedang membuat QR Code, mohon tunggu...",
		))

		resp, err := b.createCharge(ctx.Context(), userID, midtrans.MethodQRIS)
		if err != nil {
			log.Printf("QRIS charge failed for user %d: %v", userID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(userID),
				"❌ Maaf, terjadi kesalahan. Gagal membuat QR Code.",
			))
			return nil
		}

		qrURL := resp.QRCodeURL()
		if qrURL == "" {
			log.Printf("QRIS response for order %s carries no QR action", resp.OrderID)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(userID),
				"❌ Maaf, terjadi kesalahan saat memproses data QRIS.",
			))
			return nil
		}

		_, _ = ctx.Bot().SendPhoto(ctx.Context(), tu.Photo(
			tu.ID(userID),
			tu.FileFromURL(qrURL),
		).WithCaption(qrisCaption(b.Config.Price, resp.OrderID)).WithParseMode(telego.ModeHTML))
		return nil
	}, th.CallbackDataEqual("choose_qris"))

	// Callback: virtual account -> bank menu
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("BCA").WithCallbackData("va_bca_va"),
				tu.InlineKeyboardButton("BNI").WithCallbackData("va_bni_va"),
			),
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("BRI").WithCallbackData("va_bri_va"),
				tu.InlineKeyboardButton("Mandiri").WithCallbackData("va_echannel"),
			),
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("Permata / Bank Lain").WithCallbackData("va_permata_va"),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Silakan pilih bank tujuan Virtual Account:",
		).WithReplyMarkup(keyboard))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("choose_va"))

	// Callback: bank selected, payload va_<method>
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))

		method := strings.TrimPrefix(callback.Data, "va_")
		bankName := strings.ToUpper(strings.SplitN(method, "_", 2)[0])

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			fmt.Sprintf("⏳ Sedang membuat nomor Virtual Account %s, mohon tunggu...", bankName),
		))

		resp, err := b.createCharge(ctx.Context(), userID, method)
		if err != nil {
			log.Printf("VA charge (%s) failed for user %d: %v", method, userID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(userID),
				fmt.Sprintf("❌ Maaf, terjadi kesalahan. Gagal membuat Virtual Account %s.", bankName),
			))
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			vaMessage(bankName, b.Config.Price, resp),
		).WithParseMode(telego.ModeHTML))
		return nil
	}, th.CallbackDataPrefix("va_"))

	log.Println("Bot started, polling for updates")
	handler.Start()
}
