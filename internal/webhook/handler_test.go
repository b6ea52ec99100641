package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"akses-bot/internal/midtrans"
	"akses-bot/internal/models"
	"akses-bot/internal/store"
)

const (
	testServerKey = "server-key"
	testGroupID   = int64(-100200300)
)

type fakeTelegram struct {
	inviteParams []*telego.CreateChatInviteLinkParams
	sentTo       []int64
	inviteErr    error
}

func (f *fakeTelegram) CreateChatInviteLink(_ context.Context, params *telego.CreateChatInviteLinkParams) (*telego.ChatInviteLink, error) {
	f.inviteParams = append(f.inviteParams, params)
	if f.inviteErr != nil {
		return nil, f.inviteErr
	}
	return &telego.ChatInviteLink{InviteLink: "https://t.me/+invite"}, nil
}

func (f *fakeTelegram) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.sentTo = append(f.sentTo, params.ChatID.ID)
	return &telego.Message{}, nil
}

type fakeDedup struct {
	entries map[string]string
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{entries: make(map[string]string)}
}

func (f *fakeDedup) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.entries[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeDedup) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.entries[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

// brokenStore returns a store whose underlying connection is closed, so every
// query fails the way a lost database does.
func brokenStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s-broken?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return store.New(db)
}

func newTestHandler(t *testing.T) (*Handler, *store.Store, *fakeTelegram, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))

	txStore := store.New(db)
	telegram := &fakeTelegram{}
	h := NewHandler(txStore, telegram, nil, testServerKey, testGroupID)

	r := gin.New()
	h.Register(r)

	return h, txStore, telegram, r
}

func signedNotification(orderID, status string) map[string]string {
	return map[string]string{
		"order_id":           orderID,
		"transaction_status": status,
		"status_code":        "200",
		"gross_amount":       "50000.00",
		"signature_key":      midtrans.Signature(orderID, "200", "50000.00", testServerKey),
	}
}

func postNotification(t *testing.T, r *gin.Engine, payload map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/midtrans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleNotification_SettlementDeliversInviteOnce(t *testing.T) {
	_, txStore, telegram, r := newTestHandler(t)
	require.NoError(t, txStore.CreateTransaction("TELEGRAM-123-1700000000", 123, 50000))

	w := postNotification(t, r, signedNotification("TELEGRAM-123-1700000000", "settlement"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	require.Len(t, telegram.inviteParams, 1)
	assert.Equal(t, testGroupID, telegram.inviteParams[0].ChatID.ID)
	assert.Equal(t, 1, telegram.inviteParams[0].MemberLimit)
	assert.Positive(t, telegram.inviteParams[0].ExpireDate)
	assert.Equal(t, []int64{123}, telegram.sentTo)

	tx, err := txStore.GetTransaction("TELEGRAM-123-1700000000")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, tx.Status)
}

func TestHandleNotification_ReplayIsIdempotent(t *testing.T) {
	_, txStore, telegram, r := newTestHandler(t)
	require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

	payload := signedNotification("ORDER-1", "settlement")
	first := postNotification(t, r, payload)
	second := postNotification(t, r, payload)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, telegram.inviteParams, 1, "replayed notification must not issue a second invite")
	assert.Len(t, telegram.sentTo, 1)
}

func TestHandleNotification_TamperedSignature(t *testing.T) {
	_, txStore, telegram, r := newTestHandler(t)
	require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

	payload := signedNotification("ORDER-1", "settlement")
	payload["signature_key"] = "deadbeef"
	w := postNotification(t, r, payload)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, telegram.inviteParams)

	tx, err := txStore.GetTransaction("ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tx.Status, "transaction must be untouched")
}

func TestHandleNotification_NonSettlementStatusesAreNoOps(t *testing.T) {
	for _, status := range []string{"deny", "expire", "pending", "cancel"} {
		t.Run(status, func(t *testing.T) {
			_, txStore, telegram, r := newTestHandler(t)
			require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

			w := postNotification(t, r, signedNotification("ORDER-1", status))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, telegram.inviteParams)

			tx, err := txStore.GetTransaction("ORDER-1")
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, tx.Status)
		})
	}
}

func TestHandleNotification_CaptureCountsAsPaid(t *testing.T) {
	_, txStore, telegram, r := newTestHandler(t)
	require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

	w := postNotification(t, r, signedNotification("ORDER-1", "capture"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, telegram.inviteParams, 1)
}

func TestHandleNotification_UnknownOrder(t *testing.T) {
	_, _, telegram, r := newTestHandler(t)

	w := postNotification(t, r, signedNotification("UNKNOWN-1", "settlement"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, telegram.inviteParams)
}

func TestHandleNotification_StoreFailureStaysRetryable(t *testing.T) {
	h, txStore, telegram, r := newTestHandler(t)
	h.Redis = newFakeDedup()
	require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

	payload := signedNotification("ORDER-1", "settlement")

	// First delivery hits a store whose connection is gone: 500, nothing sent,
	// and no duplicate marker may be left behind.
	h.Store = brokenStore(t)
	first := postNotification(t, r, payload)
	assert.Equal(t, http.StatusInternalServerError, first.Code)
	assert.Empty(t, telegram.inviteParams)

	// The gateway retries the identical notification once the store is back;
	// the invite must still go out.
	h.Store = txStore
	second := postNotification(t, r, payload)
	assert.Equal(t, http.StatusOK, second.Code)
	require.Len(t, telegram.inviteParams, 1)
	assert.Equal(t, []int64{42}, telegram.sentTo)

	tx, err := txStore.GetTransaction("ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, tx.Status)
}

func TestHandleNotification_DedupMarkerShortCircuitsReplay(t *testing.T) {
	h, txStore, telegram, r := newTestHandler(t)
	h.Redis = newFakeDedup()
	require.NoError(t, txStore.CreateTransaction("ORDER-1", 42, 50000))

	payload := signedNotification("ORDER-1", "settlement")
	first := postNotification(t, r, payload)
	assert.Equal(t, http.StatusOK, first.Code)
	require.Len(t, telegram.inviteParams, 1)

	// A replay after success is answered from the marker without touching the
	// database at all.
	h.Store = brokenStore(t)
	second := postNotification(t, r, payload)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, telegram.inviteParams, 1)
	assert.Len(t, telegram.sentTo, 1)
}

func TestHandleNotification_MalformedBody(t *testing.T) {
	_, _, _, r := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/midtrans", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
