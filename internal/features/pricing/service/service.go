package service

import (
	"context"
	"errors"

	"stars-shop-backend/internal/features/pricing/models"
)

// DefaultAmount is substituted when a quote is requested without a valid
// quantity. This mirrors the storefront input default, as an explicit
// policy rather than silent coercion.
const DefaultAmount = 50

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// RatesSource returns the RUB price of one unit of each supported currency.
type RatesSource interface {
	RatesRUB(ctx context.Context) map[string]float64
}

type PricingService interface {
	// GetQuote prices the given quantity in every supported currency.
	// Non-positive amounts fall back to DefaultAmount.
	GetQuote(ctx context.Context, amount int64) (models.Quote, error)
	// Price returns the discounted total for the given quantity in one
	// currency; this is what a purchase is charged.
	Price(ctx context.Context, currency string, amount int64) (float64, error)
}

type pricingService struct {
	rates        RatesSource
	starPriceRUB float64
}

func NewPricingService(rates RatesSource, starPriceRUB float64) PricingService {
	return &pricingService{
		rates:        rates,
		starPriceRUB: starPriceRUB,
	}
}

// discountPercent is the volume discount schedule. It is server-owned:
// clients only ever see the resulting prices.
func discountPercent(amount int64) float64 {
	switch {
	case amount >= 5000:
		return 8
	case amount >= 1000:
		return 5
	case amount >= 500:
		return 3
	default:
		return 0
	}
}

func (s *pricingService) GetQuote(ctx context.Context, amount int64) (models.Quote, error) {
	if amount <= 0 {
		amount = DefaultAmount
	}

	discount := discountPercent(amount)
	quote := models.Quote{}

	for currency, rateRUB := range s.rates.RatesRUB(ctx) {
		unit := s.starPriceRUB / rateRUB
		base := unit * float64(amount)
		quote[currency] = models.CurrencyPrice{
			Base:       base,
			Discounted: base * (1 - discount/100),
		}
	}

	return quote, nil
}

func (s *pricingService) Price(ctx context.Context, currency string, amount int64) (float64, error) {
	quote, err := s.GetQuote(ctx, amount)
	if err != nil {
		return 0, err
	}

	price, ok := quote[currency]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}

	return price.Discounted, nil
}
