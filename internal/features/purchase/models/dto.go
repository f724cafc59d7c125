package models

// CreateRequest is the storefront purchase submission.
type CreateRequest struct {
	Amount            int64  `json:"amount"`
	RecipientUsername string `json:"recipient_username"`
	Currency          string `json:"currency"`
	UserID            *int64 `json:"user_id"`
}

// CreateResponse carries the purchase id plus exactly one payment
// presentation: an external invoice URL, or an inline QR payload with its
// accompanying message.
type CreateResponse struct {
	PurchaseID     string `json:"purchase_id"`
	InvoiceURL     string `json:"invoice_url,omitempty"`
	QRCode         string `json:"qr_code,omitempty"`
	PaymentMessage string `json:"payment_message,omitempty"`
}

// StatusResponse is the polled purchase state.
type StatusResponse struct {
	PurchaseID   string `json:"purchase_id"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
