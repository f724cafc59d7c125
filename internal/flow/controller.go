package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
	pricingmodels "stars-shop-backend/internal/features/pricing/models"
	purchasemodels "stars-shop-backend/internal/features/purchase/models"
)

const (
	// DefaultAmount is substituted when the requested quantity is absent
	// or not a positive number. An explicit policy, not silent coercion.
	DefaultAmount = 50
	// DefaultCurrency is what the currency selector resets to.
	DefaultCurrency = "TON"
	// DefaultPollInterval is the fixed status polling period.
	DefaultPollInterval = 5 * time.Second

	defaultSupportURL = "https://t.me/HappySupportStars"
)

// Options configures a Controller. ServerURL is required; everything else
// has a usable default.
type Options struct {
	ServerURL    string
	Store        SessionStore
	Notifier     Notifier
	PollInterval time.Duration
	SupportURL   string
}

// Controller drives one storefront session: resolve identity once, quote
// prices, submit purchases, and poll the active purchase to a terminal
// state. At most one purchase is polled at a time; submitting a new one
// abandons the previous poll loop.
type Controller struct {
	client     *Client
	store      SessionStore
	notifier   Notifier
	interval   time.Duration
	supportURL string
	log        zerolog.Logger

	mu           sync.Mutex
	identity     Identity
	resolved     bool
	initData     string
	quote        pricingmodels.Quote
	amount       int64
	recipient    string
	currency     string
	presentation *Presentation
	poll         *PollHandle
}

// Presentation is the payment step shown after a successful submission.
// Exactly one mode is populated: an external invoice URL, or an inline QR
// payload with its message.
type Presentation struct {
	InvoiceURL     string
	QRCode         string
	PaymentMessage string
}

func NewController(opts Options) *Controller {
	if opts.Store == nil {
		opts.Store = NewFileStore(".stars-shop-session.json")
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SupportURL == "" {
		opts.SupportURL = defaultSupportURL
	}

	return &Controller{
		client:     NewClient(opts.ServerURL),
		store:      opts.Store,
		notifier:   opts.Notifier,
		interval:   opts.PollInterval,
		supportURL: opts.SupportURL,
		log:        logger.With("flow"),
		currency:   DefaultCurrency,
	}
}

// ResolveOptions carries the launch context: init-data when running inside
// the Telegram WebApp host, a one-time token when launched from a URL.
type ResolveOptions struct {
	InitData string
	Token    string
}

// ResolveIdentity resolves the user once. Resolution order: verified
// init-data, verified one-time token, cached session, anonymous. Every
// failure is reported and degrades to the next source; the flow continues
// regardless.
func (c *Controller) ResolveIdentity(ctx context.Context, opts ResolveOptions) Identity {
	c.mu.Lock()
	if c.resolved {
		id := c.identity
		c.mu.Unlock()
		return id
	}
	c.mu.Unlock()

	identity := c.resolve(ctx, opts)

	c.mu.Lock()
	c.identity = identity
	c.resolved = true
	c.initData = opts.InitData
	c.mu.Unlock()

	c.log.Info().
		Str("source", string(identity.Source)).
		Int64("user_id", identity.UserID).
		Msg("Identity resolved")

	return identity
}

func (c *Controller) resolve(ctx context.Context, opts ResolveOptions) Identity {
	if opts.InitData != "" {
		user, err := c.client.VerifyInit(ctx, opts.InitData)
		if err == nil {
			id := Identity{
				Source:      IdentityTelegramInit,
				UserID:      user.UserID,
				Username:    user.Username,
				DisplayName: user.Fullname,
			}
			c.persistIdentity(id)
			return id
		}
		// The WebApp host vouched for the user and the backend still
		// rejected it: no weaker source can do better.
		c.notifier.Notify(LevelError, "Ошибка авторизации: "+errText(err))
		return Identity{Source: IdentityAnonymous}
	}

	if opts.Token != "" {
		user, err := c.client.VerifyToken(ctx, opts.Token)
		if err == nil {
			// The token is single-use and is never persisted: the session
			// keeps the identity, not the credential.
			id := Identity{
				Source:      IdentityURLToken,
				UserID:      user.UserID,
				Username:    user.Username,
				DisplayName: user.Fullname,
			}
			c.persistIdentity(id)
			return id
		}
		c.notifier.Notify(LevelError, "Ошибка авторизации: "+errText(err))
	}

	if session, err := c.store.Load(); err == nil && session.Identity != nil && !session.Identity.Anonymous() {
		id := *session.Identity
		id.Source = IdentityCookieCached
		return id
	}

	return Identity{Source: IdentityAnonymous}
}

// persistIdentity replaces any previously persisted session. Verified
// re-authentication invalidates stale in-flight purchase state.
func (c *Controller) persistIdentity(id Identity) {
	if err := c.store.Save(&Session{Identity: &id}); err != nil {
		c.log.Error().Err(err).Msg("Failed to persist identity")
	}
}

// Identity returns the resolved identity; anonymous if not yet resolved.
func (c *Controller) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Quote fetches prices for the given quantity and currency. Non-positive
// amounts use DefaultAmount, an empty currency uses DefaultCurrency. On
// failure the previous quote is kept and an error notification is raised.
func (c *Controller) Quote(ctx context.Context, amount int64, currency string) (pricingmodels.CurrencyPrice, error) {
	if amount <= 0 {
		amount = DefaultAmount
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	c.mu.Lock()
	req := pricingmodels.QuoteRequest{
		InitData: c.initData,
		UserID:   c.identity.userIDRef(),
		Amount:   amount,
	}
	c.mu.Unlock()

	quote, err := c.client.Prices(ctx, req)
	if err != nil {
		c.notifier.Notify(LevelError, "Ошибка загрузки цен: "+errText(err))
		return pricingmodels.CurrencyPrice{}, err
	}

	c.mu.Lock()
	c.quote = quote
	c.amount = amount
	c.currency = currency
	price := quote[currency]
	c.mu.Unlock()

	// A currency missing from the quote displays as zero, never fails.
	return price, nil
}

// DisplayPrice is the discounted price of the current quote in the given
// currency; zero when the currency is unknown.
func (c *Controller) DisplayPrice(currency string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote[currency].Discounted
}

// Amount returns the current quantity selection; zero after a completed
// purchase resets the form.
func (c *Controller) Amount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amount
}

// Currency returns the current currency selection.
func (c *Controller) Currency() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currency
}

// Presentation returns the active payment presentation, nil when none.
func (c *Controller) Presentation() *Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presentation
}

// Submit validates locally, creates the purchase and starts polling its
// status. A validation failure never issues a network request.
func (c *Controller) Submit(ctx context.Context, amount int64, recipient, currency string) (*Presentation, error) {
	if err := validateSubmission(amount, recipient, currency); err != nil {
		c.notifier.Notify(LevelError, "Заполните все поля")
		return nil, err
	}

	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()

	created, err := c.client.CreatePurchase(ctx, purchasemodels.CreateRequest{
		Amount:            amount,
		RecipientUsername: recipient,
		Currency:          currency,
		UserID:            identity.userIDRef(),
	})
	if err != nil {
		c.notifier.Notify(LevelError, errText(err))
		return nil, err
	}

	session := &Session{
		PurchaseID: created.PurchaseID,
		Amount:     amount,
		Recipient:  recipient,
		Currency:   currency,
	}
	if !identity.Anonymous() {
		session.Identity = &identity
	}
	if err := c.store.Save(session); err != nil {
		c.log.Error().Err(err).Msg("Failed to persist purchase session")
	}

	presentation := &Presentation{
		InvoiceURL:     created.InvoiceURL,
		QRCode:         created.QRCode,
		PaymentMessage: created.PaymentMessage,
	}

	c.mu.Lock()
	c.amount = amount
	c.recipient = recipient
	c.currency = currency
	c.presentation = presentation
	c.mu.Unlock()

	c.notifier.Notify(LevelSuccess, "Покупка создана, перенаправление на оплату...")
	c.StartPolling(created.PurchaseID)

	return presentation, nil
}

func validateSubmission(amount int64, recipient, currency string) error {
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	if recipient == "" {
		return &ValidationError{Field: "recipient_username", Reason: "must not be empty"}
	}
	if currency == "" {
		return &ValidationError{Field: "currency", Reason: "must not be empty"}
	}
	return nil
}

// Resume restores a persisted session and, when it contains an in-flight
// purchase, restarts status polling for it. The page-reload path of the
// browser storefront.
func (c *Controller) Resume() (*PollHandle, bool) {
	session, err := c.store.Load()
	if err != nil || session.PurchaseID == "" {
		return nil, false
	}

	c.mu.Lock()
	c.amount = session.Amount
	c.recipient = session.Recipient
	if session.Currency != "" {
		c.currency = session.Currency
	}
	if !c.resolved && session.Identity != nil && !session.Identity.Anonymous() {
		c.identity = *session.Identity
		c.identity.Source = IdentityCookieCached
		c.resolved = true
	}
	c.mu.Unlock()

	return c.StartPolling(session.PurchaseID), true
}

func errText(err error) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Message
	}
	return "Ошибка сервера"
}
