package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricing "stars-shop-backend/internal/features/pricing/service"
	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/features/purchase/repository"
	"stars-shop-backend/internal/platform/cryptopay"
)

const testCheckInterval = 5 * time.Millisecond

type memoryRepo struct {
	mu        sync.Mutex
	purchases map[string]*models.Purchase
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{purchases: map[string]*models.Purchase{}}
}

func (r *memoryRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *purchase
	r.purchases[purchase.ID] = &clone
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *purchase
	return &clone, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id string, status models.Status, transactionID, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.purchases[id]
	if !ok {
		return repository.ErrNotFound
	}
	purchase.Status = status
	purchase.TransactionID = transactionID
	purchase.ErrorMessage = errorMessage
	return nil
}

func (r *memoryRepo) ListByStatus(ctx context.Context, status models.Status) ([]*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Purchase
	for _, purchase := range r.purchases {
		if purchase.Status == status {
			clone := *purchase
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryRepo) status(id string) models.Status {
	purchase, err := r.GetByID(context.Background(), id)
	if err != nil {
		return ""
	}
	return purchase.Status
}

// fakePrices charges a flat 0.005 per star regardless of currency, except
// "BTC" which is unsupported.
type fakePrices struct{}

func (fakePrices) Price(ctx context.Context, currency string, amount int64) (float64, error) {
	if currency == "BTC" {
		return 0, pricing.ErrUnsupportedCurrency
	}
	return 0.005 * float64(amount), nil
}

type fakeInvoices struct {
	mu      sync.Mutex
	nextID  int64
	status  string
	created int
	deleted []int64
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, amount float64, asset string) (*cryptopay.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created++
	return &cryptopay.Invoice{
		ID:            f.nextID,
		Status:        cryptopay.InvoiceStatusActive,
		Asset:         asset,
		Amount:        fmt.Sprintf("%f", amount),
		BotInvoiceURL: fmt.Sprintf("https://t.me/CryptoBot?start=%d", f.nextID),
	}, nil
}

func (f *fakeInvoices) GetInvoice(ctx context.Context, id int64) (*cryptopay.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.status
	if status == "" {
		status = cryptopay.InvoiceStatusActive
	}
	return &cryptopay.Invoice{ID: id, Status: status}, nil
}

func (f *fakeInvoices) DeleteInvoice(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeInvoices) setStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

type fakeDirect struct {
	mu       sync.Mutex
	received bool
}

func (f *fakeDirect) TransferLink(price float64, comment string) (string, error) {
	return fmt.Sprintf("ton://transfer/SHOP?amount=%d&text=%s", int64(price*1e9), comment), nil
}

func (f *fakeDirect) PaymentReceived(ctx context.Context, comment string, price float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received, nil
}

func (f *fakeDirect) pay() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = true
}

type fakeDeliverer struct {
	mu         sync.Mutex
	err        error
	deliveries int
}

func (f *fakeDeliverer) BuyStars(ctx context.Context, amount int64, recipient string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.deliveries++
	return "tx-1", nil
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deliveries
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) record(kind, purchaseID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, kind+":"+purchaseID)
}

func (f *fakeNotifier) PurchaseCompleted(ctx context.Context, chatID int64, purchaseID string, amount int64, recipient string) {
	f.record("completed", purchaseID)
}

func (f *fakeNotifier) PurchaseCancelled(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string) {
	f.record("cancelled", purchaseID)
}

func (f *fakeNotifier) PurchaseFailed(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string) {
	f.record("failed", purchaseID)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeStats struct {
	mu    sync.Mutex
	total int64
}

func (f *fakeStats) RecordStarsSent(ctx context.Context, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += amount
	return nil
}

func (f *fakeStats) sum() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

type fixture struct {
	svc       PurchaseService
	repo      *memoryRepo
	invoices  *fakeInvoices
	direct    *fakeDirect
	deliverer *fakeDeliverer
	notifier  *fakeNotifier
	stats     *fakeStats
}

func newFixture(t *testing.T, withDirect bool) *fixture {
	f := &fixture{
		repo:      newMemoryRepo(),
		invoices:  &fakeInvoices{},
		deliverer: &fakeDeliverer{},
		notifier:  &fakeNotifier{},
		stats:     &fakeStats{},
	}

	deps := Deps{
		Repo:          f.repo,
		Prices:        fakePrices{},
		Invoices:      f.invoices,
		Deliverer:     f.deliverer,
		Notifier:      f.notifier,
		Stats:         f.stats,
		CheckInterval: testCheckInterval,
	}
	if withDirect {
		f.direct = &fakeDirect{}
		deps.Direct = f.direct
	}

	f.svc = NewPurchaseService(deps)
	t.Cleanup(f.svc.Close)
	return f
}

func awaitStatus(t *testing.T, repo *memoryRepo, id string, want models.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return repo.status(id) == want
	}, 2*time.Second, testCheckInterval, "purchase %s never reached %s", id, want)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, false)

	cases := []struct {
		input *models.CreateRequest
		want  error
	}{
		{&models.CreateRequest{Amount: 100, Currency: "TON"}, ErrMissingFields},
		{&models.CreateRequest{Amount: 100, RecipientUsername: "@alice"}, ErrMissingFields},
		{&models.CreateRequest{RecipientUsername: "@alice", Currency: "TON"}, ErrMissingFields},
		{&models.CreateRequest{Amount: -5, RecipientUsername: "@alice", Currency: "TON"}, ErrMinAmount},
		{&models.CreateRequest{Amount: 100, RecipientUsername: "@alice", Currency: "BTC"}, ErrUnsupportedCurrency},
	}

	for _, tc := range cases {
		_, err := f.svc.Create(context.Background(), tc.input)
		assert.ErrorIs(t, err, tc.want)
	}

	// nothing left the service on rejected input
	assert.Zero(t, f.invoices.created)
}

func TestCreateInvoiceMode(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "USDT",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PurchaseID)
	assert.Contains(t, resp.InvoiceURL, "t.me/CryptoBot")
	assert.Empty(t, resp.QRCode)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, purchase.Status)
	assert.Equal(t, models.PayModeInvoice, purchase.PayMode)
	assert.NotZero(t, purchase.InvoiceID)
	assert.InDelta(t, 0.5, purchase.Price, 1e-9)
}

func TestCreateDirectTONMode(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "TON",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.InvoiceURL)
	assert.Contains(t, resp.QRCode, "ton://transfer/")
	assert.Contains(t, resp.QRCode, resp.PurchaseID)
	assert.Contains(t, resp.PaymentMessage, resp.PurchaseID)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.PayModeTONTransfer, purchase.PayMode)
	assert.Zero(t, f.invoices.created)
}

func TestCreateTONWithoutWalletFallsBackToInvoice(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "TON",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.InvoiceURL)
	assert.Empty(t, resp.QRCode)
}

func TestWatcherDeliversOnPaidInvoice(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "TON",
		UserID:            ptrInt64(42),
	})
	require.NoError(t, err)

	f.invoices.setStatus(cryptopay.InvoiceStatusPaid)
	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusCompleted)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", purchase.TransactionID)

	assert.Equal(t, int64(100), f.stats.sum())
	assert.Equal(t, []string{"completed:" + resp.PurchaseID}, f.notifier.all())
}

func TestWatcherDeliversOnDirectTONPayment(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            250,
		RecipientUsername: "@alice",
		Currency:          "TON",
	})
	require.NoError(t, err)

	f.direct.pay()
	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusCompleted)
	assert.Equal(t, int64(250), f.stats.sum())
}

func TestWatcherCancelsOnExpiredInvoice(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "USDT",
	})
	require.NoError(t, err)

	f.invoices.setStatus(cryptopay.InvoiceStatusExpired)
	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusCancelled)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, reasonInvoiceExpired, purchase.ErrorMessage)

	f.invoices.mu.Lock()
	deleted := append([]int64(nil), f.invoices.deleted...)
	f.invoices.mu.Unlock()
	assert.Equal(t, []int64{purchase.InvoiceID}, deleted)
	assert.Equal(t, []string{"cancelled:" + resp.PurchaseID}, f.notifier.all())
}

func TestWatcherCancelsOnPaymentWindowExpiry(t *testing.T) {
	f := &fixture{
		repo:      newMemoryRepo(),
		invoices:  &fakeInvoices{},
		deliverer: &fakeDeliverer{},
		notifier:  &fakeNotifier{},
		stats:     &fakeStats{},
	}
	f.svc = NewPurchaseService(Deps{
		Repo:          f.repo,
		Prices:        fakePrices{},
		Invoices:      f.invoices,
		Deliverer:     f.deliverer,
		Notifier:      f.notifier,
		Stats:         f.stats,
		CheckInterval: testCheckInterval,
		PaymentWindow: 20 * time.Millisecond,
	})
	t.Cleanup(f.svc.Close)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "USDT",
	})
	require.NoError(t, err)

	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusCancelled)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Contains(t, purchase.ErrorMessage, "15 минут")
}

func TestWatcherMarksFailedOnDeliveryError(t *testing.T) {
	f := newFixture(t, false)
	f.deliverer.err = fmt.Errorf("fragment rejected recipient")

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@nosuchuser",
		Currency:          "USDT",
	})
	require.NoError(t, err)

	f.invoices.setStatus(cryptopay.InvoiceStatusPaid)
	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusFailed)

	purchase, err := f.repo.GetByID(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Contains(t, purchase.ErrorMessage, "fragment rejected recipient")
	assert.Equal(t, []string{"failed:" + resp.PurchaseID}, f.notifier.all())
	assert.Zero(t, f.stats.sum())
}

func TestResumeWatchersDoesNotDuplicate(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "USDT",
	})
	require.NoError(t, err)

	// the purchase is still pending, so resume sees it; the watcher
	// registry must not start a second loop for it
	require.NoError(t, f.svc.ResumeWatchers(context.Background()))

	f.invoices.setStatus(cryptopay.InvoiceStatusPaid)
	awaitStatus(t, f.repo, resp.PurchaseID, models.StatusCompleted)

	time.Sleep(5 * testCheckInterval)
	assert.Equal(t, 1, f.deliverer.count())
	assert.Equal(t, []string{"completed:" + resp.PurchaseID}, f.notifier.all())
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Amount:            100,
		RecipientUsername: "@alice",
		Currency:          "USDT",
	})
	require.NoError(t, err)

	status, err := f.svc.GetStatus(context.Background(), resp.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, resp.PurchaseID, status.PurchaseID)
	assert.Equal(t, models.StatusPending, status.Status)

	_, err = f.svc.GetStatus(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func ptrInt64(v int64) *int64 {
	return &v
}
