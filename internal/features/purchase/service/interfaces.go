package service

import (
	"context"

	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/platform/cryptopay"
)

type PurchaseService interface {
	Create(ctx context.Context, input *models.CreateRequest) (*models.CreateResponse, error)
	GetStatus(ctx context.Context, id string) (*models.StatusResponse, error)
	// ResumeWatchers restarts payment watchers for purchases left pending
	// by a previous process.
	ResumeWatchers(ctx context.Context) error
	// Close stops all watchers and waits for them to finish.
	Close()
}

// InvoiceProvider creates and tracks Crypto Pay invoices.
type InvoiceProvider interface {
	CreateInvoice(ctx context.Context, amount float64, asset string) (*cryptopay.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*cryptopay.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
}

// DirectPayments handles the direct-to-wallet TON payment mode.
type DirectPayments interface {
	TransferLink(price float64, comment string) (string, error)
	PaymentReceived(ctx context.Context, comment string, price float64) (bool, error)
}

// Deliverer sends the bought stars to the recipient once payment clears.
type Deliverer interface {
	BuyStars(ctx context.Context, amount int64, recipient string) (string, error)
}

// Notifier tells the buyer how their purchase ended.
type Notifier interface {
	PurchaseCompleted(ctx context.Context, chatID int64, purchaseID string, amount int64, recipient string)
	PurchaseCancelled(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string)
	PurchaseFailed(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string)
}

// StatsRecorder counts delivered stars.
type StatsRecorder interface {
	RecordStarsSent(ctx context.Context, amount int64) error
}

// PriceSource is the discounted total a purchase is charged.
type PriceSource interface {
	Price(ctx context.Context, currency string, amount int64) (float64, error)
}
