package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Order timestamps are reported in western Indonesian time, as Midtrans
// expects for custom expiry windows.
var jakarta = time.FixedZone("WIB", 7*60*60)

type Client struct {
	ServerKey  string
	APIURL     string
	HTTPClient *http.Client
}

func NewClient(serverKey, apiURL string) *Client {
	return &Client{
		ServerKey: serverKey,
		APIURL:    apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewOrderID builds <prefix>-<user_id>-<unix_seconds>. Second granularity
// means two charges from the same user within one second collide.
func NewOrderID(prefix string, userID int64) string {
	return fmt.Sprintf("%s-%d-%d", prefix, userID, time.Now().Unix())
}

// CreateCharge asks Midtrans to create a transaction for the given payment
// method. It performs no persistence and no retries; a non-2xx response or
// transport failure comes back as an error.
func (c *Client) CreateCharge(ctx context.Context, orderID string, amount int, method string) (*ChargeResponse, error) {
	reqBody, err := buildChargeRequest(orderID, amount, method, time.Now())
	if err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.New().String())
	req.SetBasicAuth(c.ServerKey, "")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var chargeResponse ChargeResponse
	if err := json.Unmarshal(respBody, &chargeResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &chargeResponse, nil
}

func buildChargeRequest(orderID string, amount int, method string, now time.Time) (*ChargeRequest, error) {
	req := &ChargeRequest{
		TransactionDetails: TransactionDetails{
			OrderID:     orderID,
			GrossAmount: amount,
		},
	}

	switch method {
	case MethodQRIS:
		req.PaymentType = "qris"
		req.CustomExpiry = &CustomExpiry{
			OrderTime:      now.In(jakarta).Format("2006-01-02 15:04:05 -0700"),
			ExpiryDuration: 15,
			Unit:           "minute",
		}
	case MethodBCAVA, MethodBNIVA, MethodBRIVA, MethodPermataVA:
		req.PaymentType = "bank_transfer"
		req.BankTransfer = &BankTransfer{Bank: bankCode(method)}
	case MethodEchannel:
		req.PaymentType = "echannel"
		req.Echannel = &Echannel{
			BillInfo1: "Payment For:",
			BillInfo2: "Telegram Bot Access",
		}
	default:
		return nil, fmt.Errorf("unsupported payment method: %s", method)
	}

	return req, nil
}

// bankCode extracts the bank identifier from a *_va method, e.g. "bca_va" -> "bca".
func bankCode(method string) string {
	for i := 0; i < len(method); i++ {
		if method[i] == '_' {
			return method[:i]
		}
	}
	return method
}
