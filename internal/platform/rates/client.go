package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
)

// Fallback rates used when CoinGecko is unreachable or returns garbage,
// so the storefront keeps quoting instead of going dark.
var fallbackRatesRUB = map[string]float64{
	"TON":  242.0,
	"USDT": 81.0,
}

// Client fetches RUB exchange rates for the supported assets from CoinGecko.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		log:     logger.With("rates"),
	}
}

type simplePriceResponse struct {
	TON struct {
		RUB float64 `json:"rub"`
	} `json:"the-open-network"`
	Tether struct {
		RUB float64 `json:"rub"`
	} `json:"tether"`
}

// RatesRUB returns the RUB price of one unit of each supported currency.
// It never fails: any error degrades to the fallback table.
func (c *Client) RatesRUB(ctx context.Context) map[string]float64 {
	url := fmt.Sprintf("%s/simple/price?ids=the-open-network,tether&vs_currencies=rub", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to build rates request")
		return fallbackRatesRUB
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("rates request failed, using fallback rates")
		return fallbackRatesRUB
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error().Int("status", resp.StatusCode).Msg("rates request rejected, using fallback rates")
		return fallbackRatesRUB
	}

	var prices simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		c.log.Error().Err(err).Msg("failed to decode rates response, using fallback rates")
		return fallbackRatesRUB
	}

	if prices.TON.RUB == 0 || prices.Tether.RUB == 0 {
		c.log.Error().Msg("zero TON or USDT rate in response, using fallback rates")
		return fallbackRatesRUB
	}

	return map[string]float64{
		"TON":  prices.TON.RUB,
		"USDT": prices.Tether.RUB,
	}
}
