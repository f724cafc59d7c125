package models

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further status change is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

type PayMode string

const (
	// PayModeInvoice: the buyer pays a Crypto Pay invoice by external URL.
	PayModeInvoice PayMode = "invoice"
	// PayModeTONTransfer: the buyer sends TON directly to the shop wallet,
	// presented inline as a ton:// link / QR payload.
	PayModeTONTransfer PayMode = "ton_transfer"
)

type Purchase struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"user_id,omitempty"`
	Amount            int64     `json:"amount"`
	RecipientUsername string    `json:"recipient_username"`
	Currency          string    `json:"currency"`
	Price             float64   `json:"price"`
	InvoiceID         int64     `json:"invoice_id,omitempty"`
	PayMode           PayMode   `json:"pay_mode"`
	Status            Status    `json:"status"`
	TransactionID     string    `json:"transaction_id,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
