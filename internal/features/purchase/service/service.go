package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
	pricing "stars-shop-backend/internal/features/pricing/service"
	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/features/purchase/repository"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrMinAmount           = errors.New("minimum star amount is 1")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNotFound            = errors.New("purchase not found")
)

const (
	defaultCheckInterval = 2 * time.Second
	defaultPaymentWindow = 15 * time.Minute
)

// Deps are the collaborators of the purchase service. Direct may be nil
// when no shop wallet is configured; TON purchases then go through Crypto
// Pay invoices like every other currency.
type Deps struct {
	Repo      repository.PurchaseRepository
	Prices    PriceSource
	Invoices  InvoiceProvider
	Direct    DirectPayments
	Deliverer Deliverer
	Notifier  Notifier
	Stats     StatsRecorder

	CheckInterval time.Duration
	PaymentWindow time.Duration
}

type purchaseService struct {
	repo      repository.PurchaseRepository
	prices    PriceSource
	invoices  InvoiceProvider
	direct    DirectPayments
	deliverer Deliverer
	notifier  Notifier
	stats     StatsRecorder
	log       zerolog.Logger

	checkInterval time.Duration
	paymentWindow time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	watching sync.Map
}

func NewPurchaseService(deps Deps) PurchaseService {
	if deps.CheckInterval == 0 {
		deps.CheckInterval = defaultCheckInterval
	}
	if deps.PaymentWindow == 0 {
		deps.PaymentWindow = defaultPaymentWindow
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &purchaseService{
		repo:          deps.Repo,
		prices:        deps.Prices,
		invoices:      deps.Invoices,
		direct:        deps.Direct,
		deliverer:     deps.Deliverer,
		notifier:      deps.Notifier,
		stats:         deps.Stats,
		log:           logger.With("purchase"),
		checkInterval: deps.CheckInterval,
		paymentWindow: deps.PaymentWindow,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (s *purchaseService) Create(ctx context.Context, input *models.CreateRequest) (*models.CreateResponse, error) {
	if input.RecipientUsername == "" || input.Currency == "" || input.Amount == 0 {
		return nil, ErrMissingFields
	}
	if input.Amount < 1 {
		return nil, ErrMinAmount
	}

	price, err := s.prices.Price(ctx, input.Currency, input.Amount)
	if err != nil {
		if errors.Is(err, pricing.ErrUnsupportedCurrency) {
			return nil, ErrUnsupportedCurrency
		}
		return nil, err
	}

	purchase := &models.Purchase{
		ID:                uuid.New().String(),
		Amount:            input.Amount,
		RecipientUsername: input.RecipientUsername,
		Currency:          input.Currency,
		Price:             price,
		Status:            models.StatusPending,
		CreatedAt:         time.Now(),
	}
	if input.UserID != nil {
		purchase.UserID = *input.UserID
	}

	resp := &models.CreateResponse{PurchaseID: purchase.ID}

	if input.Currency == "TON" && s.direct != nil {
		link, err := s.direct.TransferLink(price, purchase.ID)
		if err != nil {
			return nil, fmt.Errorf("build transfer link: %w", err)
		}
		purchase.PayMode = models.PayModeTONTransfer
		resp.QRCode = link
		resp.PaymentMessage = fmt.Sprintf(
			"Переведите %.9f TON на кошелек магазина с комментарием %s", price, purchase.ID)
	} else {
		invoice, err := s.invoices.CreateInvoice(ctx, price, input.Currency)
		if err != nil {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
		purchase.PayMode = models.PayModeInvoice
		purchase.InvoiceID = invoice.ID
		resp.InvoiceURL = invoice.BotInvoiceURL
	}

	if err := s.repo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("store purchase: %w", err)
	}

	s.log.Info().
		Str("purchase_id", purchase.ID).
		Int64("amount", purchase.Amount).
		Str("currency", purchase.Currency).
		Str("pay_mode", string(purchase.PayMode)).
		Msg("Purchase created")

	s.startWatcher(purchase)

	return resp, nil
}

func (s *purchaseService) GetStatus(ctx context.Context, id string) (*models.StatusResponse, error) {
	purchase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &models.StatusResponse{
		PurchaseID:   purchase.ID,
		Status:       purchase.Status,
		ErrorMessage: purchase.ErrorMessage,
	}, nil
}

func (s *purchaseService) ResumeWatchers(ctx context.Context) error {
	pending, err := s.repo.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return err
	}

	for _, purchase := range pending {
		s.log.Info().Str("purchase_id", purchase.ID).Msg("Resuming payment watcher")
		s.startWatcher(purchase)
	}

	return nil
}

func (s *purchaseService) Close() {
	s.cancel()
	s.wg.Wait()
}
