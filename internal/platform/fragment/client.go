package fragment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
)

// ErrNotConfigured is returned when the Fragment credentials are missing;
// purchases can be accepted but never delivered in that state.
var ErrNotConfigured = errors.New("fragment API is not configured")

// Client delivers bought stars to their recipient through the Fragment API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	seed       string
	cookies    string
	log        zerolog.Logger
}

func NewClient(baseURL, seed, cookies string) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		seed:    seed,
		cookies: cookies,
		log:     logger.With("fragment"),
	}
	if !c.Configured() {
		c.log.Warn().Msg("Fragment API is not configured, star delivery is disabled")
	}
	return c
}

func (c *Client) Configured() bool {
	return c.seed != ""
}

type buyStarsRequest struct {
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
	Seed     string `json:"seed"`
}

type buyStarsResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

// BuyStars sends the given amount of stars to the recipient and returns the
// Fragment transaction id.
func (c *Client) BuyStars(ctx context.Context, amount int64, recipient string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(buyStarsRequest{
		Username: recipient,
		Amount:   amount,
		Seed:     c.seed,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/buyStarsWithoutKYC", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cookies != "" {
		req.Header.Set("Cookie", c.cookies)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fragment request: %w", err)
	}
	defer resp.Body.Close()

	var result buyStarsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode fragment response: %w", err)
	}

	if result.Error != "" || !result.Success {
		if result.Error == "" {
			result.Error = "unknown fragment API error"
		}
		return "", fmt.Errorf("fragment delivery: %s", result.Error)
	}

	if result.TransactionID == "" {
		// Some responses omit the id; synthesize one so logs stay traceable.
		result.TransactionID = fmt.Sprintf("fragment_%d_%s_%d", amount, recipient, time.Now().Unix())
	}

	c.log.Info().
		Int64("amount", amount).
		Str("recipient", recipient).
		Str("transaction_id", result.TransactionID).
		Msg("Stars delivered")

	return result.TransactionID, nil
}
