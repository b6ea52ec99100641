package midtrans

// Payment method identifiers accepted by CreateCharge. The *_va methods map
// to a bank_transfer block; echannel is the Mandiri bill payment.
const (
	MethodQRIS      = "qris"
	MethodBCAVA     = "bca_va"
	MethodBNIVA     = "bni_va"
	MethodBRIVA     = "bri_va"
	MethodPermataVA = "permata_va"
	MethodEchannel  = "echannel"
)

// Transaction statuses that mean the money has been received.
const (
	StatusSettlement = "settlement"
	StatusCapture    = "capture"
)

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int    `json:"gross_amount"`
}

type CustomExpiry struct {
	OrderTime      string `json:"order_time"`
	ExpiryDuration int    `json:"expiry_duration"`
	Unit           string `json:"unit"`
}

type BankTransfer struct {
	Bank string `json:"bank"`
}

type Echannel struct {
	BillInfo1 string `json:"bill_info1"`
	BillInfo2 string `json:"bill_info2"`
}

type ChargeRequest struct {
	PaymentType        string             `json:"payment_type"`
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomExpiry       *CustomExpiry      `json:"custom_expiry,omitempty"`
	BankTransfer       *BankTransfer      `json:"bank_transfer,omitempty"`
	Echannel           *Echannel          `json:"echannel,omitempty"`
}

type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

type Action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type ChargeResponse struct {
	OrderID           string     `json:"order_id"`
	TransactionID     string     `json:"transaction_id"`
	TransactionStatus string     `json:"transaction_status"`
	StatusCode        string     `json:"status_code"`
	StatusMessage     string     `json:"status_message"`
	GrossAmount       string     `json:"gross_amount"`
	PaymentType       string     `json:"payment_type"`
	VANumbers         []VANumber `json:"va_numbers,omitempty"`
	PermataVANumber   string     `json:"permata_va_number,omitempty"`
	BillerCode        string     `json:"biller_code,omitempty"`
	BillKey           string     `json:"bill_key,omitempty"`
	Actions           []Action   `json:"actions,omitempty"`
}

// QRCodeURL returns the generate-qr-code action URL, or "" when absent.
func (r *ChargeResponse) QRCodeURL() string {
	for _, action := range r.Actions {
		if action.Name == "generate-qr-code" {
			return action.URL
		}
	}
	return ""
}

// VirtualAccountNumber returns the VA number for bank-transfer charges.
// Permata VAs arrive in their own field instead of the va_numbers list.
func (r *ChargeResponse) VirtualAccountNumber() string {
	if len(r.VANumbers) > 0 {
		return r.VANumbers[0].VANumber
	}
	return r.PermataVANumber
}

// Notification is the asynchronous status update Midtrans POSTs to the
// webhook endpoint.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
	FraudStatus       string `json:"fraud_status"`
}
