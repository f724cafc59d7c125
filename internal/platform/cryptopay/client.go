package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Invoice statuses as reported by the Crypto Pay API.
const (
	InvoiceStatusActive  = "active"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusExpired = "expired"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// Invoice is the subset of the Crypto Pay invoice object the shop cares about.
type Invoice struct {
	ID            int64  `json:"invoice_id"`
	Status        string `json:"status"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	BotInvoiceURL string `json:"bot_invoice_url"`
}

// Client talks to the Crypto Pay API (https://pay.crypt.bot).
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

func NewClient(token, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		token:   token,
		baseURL: baseURL,
	}
}

type apiResponse struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("encode %s payload: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Crypto-Pay-API-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !apiResp.Ok {
		if apiResp.Error != nil {
			return fmt.Errorf("crypto pay %s: %d %s", method, apiResp.Error.Code, apiResp.Error.Name)
		}
		return fmt.Errorf("crypto pay %s: request failed", method)
	}

	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// CreateInvoice creates an invoice for the given amount of the given asset.
func (c *Client) CreateInvoice(ctx context.Context, amount float64, asset string) (*Invoice, error) {
	payload := map[string]any{
		"asset":  asset,
		"amount": fmt.Sprintf("%.8f", amount),
	}

	var invoice Invoice
	if err := c.call(ctx, "createInvoice", payload, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoice fetches the current state of a single invoice.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	payload := map[string]any{
		"invoice_ids": fmt.Sprintf("%d", id),
	}

	var result struct {
		Items []*Invoice `json:"items"`
	}
	if err := c.call(ctx, "getInvoices", payload, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrInvoiceNotFound
	}
	return result.Items[0], nil
}

// DeleteInvoice removes an unpaid invoice so it can no longer be paid.
func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	payload := map[string]any{
		"invoice_id": id,
	}
	return c.call(ctx, "deleteInvoice", payload, nil)
}
