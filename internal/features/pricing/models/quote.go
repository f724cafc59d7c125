package models

// QuoteRequest mirrors what the storefront page sends: identity proof (if
// any) and the requested star quantity.
type QuoteRequest struct {
	InitData string `json:"initData"`
	UserID   *int64 `json:"user_id"`
	Amount   int64  `json:"amount"`
}

// CurrencyPrice is the cost of the requested quantity in one currency,
// before and after the volume discount.
type CurrencyPrice struct {
	Base       float64 `json:"base"`
	Discounted float64 `json:"discounted"`
}

// Quote maps currency code to the price of the requested quantity.
type Quote map[string]CurrencyPrice
