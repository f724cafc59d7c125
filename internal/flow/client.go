package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	authmodels "stars-shop-backend/internal/features/auth/models"
	pricingmodels "stars-shop-backend/internal/features/pricing/models"
	purchasemodels "stars-shop-backend/internal/features/purchase/models"
	statsmodels "stars-shop-backend/internal/features/stats/models"
)

// Client is the typed HTTP client for the storefront API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do executes a request and decodes the response into out. A network or
// decode failure is a TransportError; an error field in the body or a
// non-200 status is a BackendError.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var probe struct {
		Error string `json:"error"`
	}
	// A decode failure here is irrelevant: unknown shapes are caught below.
	_ = json.Unmarshal(data, &probe)
	if probe.Error != "" {
		return &BackendError{Op: op, Message: probe.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return &BackendError{Op: op, Message: resp.Status}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &TransportError{Op: op, Err: err}
		}
	}
	return nil
}

func (c *Client) VerifyInit(ctx context.Context, initData string) (*authmodels.VerifiedUser, error) {
	var user authmodels.VerifiedUser
	err := c.do(ctx, "verify-init", http.MethodPost, "/api/verify-init",
		authmodels.VerifyInitRequest{InitData: initData}, &user)
	if err != nil {
		return nil, &AuthError{Stage: "verify-init", Err: err}
	}
	return &user, nil
}

func (c *Client) VerifyToken(ctx context.Context, token string) (*authmodels.VerifiedUser, error) {
	var user authmodels.VerifiedUser
	err := c.do(ctx, "verify-token", http.MethodPost, "/api/verify-token",
		authmodels.VerifyTokenRequest{Token: token}, &user)
	if err != nil {
		return nil, &AuthError{Stage: "verify-token", Err: err}
	}
	return &user, nil
}

func (c *Client) Prices(ctx context.Context, req pricingmodels.QuoteRequest) (pricingmodels.Quote, error) {
	var quote pricingmodels.Quote
	if err := c.do(ctx, "prices", http.MethodPost, "/api/prices", req, &quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (c *Client) CreatePurchase(ctx context.Context, req purchasemodels.CreateRequest) (*purchasemodels.CreateResponse, error) {
	var created purchasemodels.CreateResponse
	if err := c.do(ctx, "purchase", http.MethodPost, "/api/purchase", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) PurchaseStatus(ctx context.Context, id string) (*purchasemodels.StatusResponse, error) {
	var status purchasemodels.StatusResponse
	if err := c.do(ctx, "purchase-status", http.MethodGet, "/api/purchase/"+id, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Statistics(ctx context.Context) (*statsmodels.Statistics, error) {
	var stats statsmodels.Statistics
	if err := c.do(ctx, "statistics", http.MethodGet, "/api/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
