package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"akses-bot/internal/midtrans"
	"akses-bot/internal/store"
)

const (
	inviteLinkTTL  = 24 * time.Hour
	dedupMarkerTTL = 24 * time.Hour
)

// inviteSender is the slice of the Telegram API the receiver needs,
// satisfied by *telego.Bot.
type inviteSender interface {
	CreateChatInviteLink(ctx context.Context, params *telego.CreateChatInviteLinkParams) (*telego.ChatInviteLink, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// dedupStore is the slice of the Redis API the duplicate short-circuit uses,
// satisfied by *redis.Client.
type dedupStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Handler processes Midtrans payment notifications: verify, settle exactly
// once, deliver the invite link.
type Handler struct {
	Store        *store.Store
	Telegram     inviteSender
	Redis        dedupStore
	ServerKey    string
	TargetChatID int64
}

func NewHandler(txStore *store.Store, telegram inviteSender, rdb *redis.Client, serverKey string, targetChatID int64) *Handler {
	h := &Handler{
		Store:        txStore,
		Telegram:     telegram,
		ServerKey:    serverKey,
		TargetChatID: targetChatID,
	}
	if rdb != nil {
		h.Redis = rdb
	}
	return h
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/webhook/midtrans", h.HandleNotification)
}

func (h *Handler) HandleNotification(c *gin.Context) {
	var n midtrans.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		log.Printf("Failed to decode webhook payload: %v", err)
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	log.Printf("Received webhook for order_id: %s with status: %s", n.OrderID, n.TransactionStatus)

	if !midtrans.VerifySignature(&n, h.ServerKey) {
		log.Printf("Invalid signature key for order_id: %s", n.OrderID)
		c.String(http.StatusForbidden, "invalid signature")
		return
	}

	if n.TransactionStatus != midtrans.StatusSettlement && n.TransactionStatus != midtrans.StatusCapture {
		c.String(http.StatusOK, "OK")
		return
	}

	if h.alreadyHandled(c.Request.Context(), &n) {
		log.Printf("Duplicate notification for order_id: %s, skipping", n.OrderID)
		c.String(http.StatusOK, "OK")
		return
	}

	tx, err := h.Store.GetTransaction(n.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Transaction %s not found, ignoring notification", n.OrderID)
		c.String(http.StatusOK, "OK")
		return
	}
	if err != nil {
		log.Printf("Failed to load transaction %s: %v", n.OrderID, err)
		c.String(http.StatusInternalServerError, "database error")
		return
	}

	// Settle first, deliver second. Only the caller whose conditional update
	// applied may issue the invite link, so a replayed notification can never
	// produce a second one.
	applied, err := h.Store.MarkPaid(n.OrderID)
	if err != nil {
		log.Printf("Failed to mark transaction %s paid: %v", n.OrderID, err)
		c.String(http.StatusOK, "OK")
		return
	}
	if !applied {
		log.Printf("Transaction %s already processed", n.OrderID)
		h.markHandled(c.Request.Context(), &n)
		c.String(http.StatusOK, "OK")
		return
	}

	if err := h.deliverInvite(c.Request.Context(), tx.UserID); err != nil {
		log.Printf("Failed to deliver invite for order_id %s to user %d: %v", n.OrderID, tx.UserID, err)
	} else {
		log.Printf("Invite link sent to user %d for order_id %s", tx.UserID, n.OrderID)
	}

	h.markHandled(c.Request.Context(), &n)
	c.String(http.StatusOK, "OK")
}

func dedupKey(n *midtrans.Notification) string {
	return fmt.Sprintf("webhook:%s:%s", n.OrderID, n.TransactionStatus)
}

// alreadyHandled reports whether this (order, status) pair was settled on an
// earlier delivery. Best effort: without Redis, or on Redis errors, the
// conditional status update still guarantees single delivery.
func (h *Handler) alreadyHandled(ctx context.Context, n *midtrans.Notification) bool {
	if h.Redis == nil {
		return false
	}
	_, err := h.Redis.Get(ctx, dedupKey(n)).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Printf("Redis dedup check failed for %s: %v", dedupKey(n), err)
		return false
	}
	return true
}

// markHandled records the marker once the settlement outcome is known. The
// marker is never written before processing completes: a delivery that failed
// with 500 must stay retryable by the gateway.
func (h *Handler) markHandled(ctx context.Context, n *midtrans.Notification) {
	if h.Redis == nil {
		return
	}
	if err := h.Redis.Set(ctx, dedupKey(n), "1", dedupMarkerTTL).Err(); err != nil {
		log.Printf("Redis dedup mark failed for %s: %v", dedupKey(n), err)
	}
}

// deliverInvite creates a single-use invite link for the target group and
// sends it to the purchaser.
func (h *Handler) deliverInvite(ctx context.Context, userID int64) error {
	link, err := h.Telegram.CreateChatInviteLink(ctx, &telego.CreateChatInviteLinkParams{
		ChatID:      tu.ID(h.TargetChatID),
		ExpireDate:  time.Now().Add(inviteLinkTTL).Unix(),
		MemberLimit: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create invite link: %w", err)
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔗 Gabung Grup").WithURL(link.InviteLink),
		),
	)

	_, err = h.Telegram.SendMessage(ctx, tu.Message(
		tu.ID(userID),
		"✅ Pembayaran berhasil!\n\n"+
			"Terima kasih. Silakan gunakan tombol di bawah untuk bergabung ke grup.\n\n"+
			"<i>Link ini hanya berlaku untuk 1 kali klik dan akan kedaluwarsa dalam 24 jam.</i>",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(keyboard))
	if err != nil {
		return fmt.Errorf("failed to send invite message: %w", err)
	}

	return nil
}
