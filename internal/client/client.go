package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/13x54n/lypto-sub001/internal/payments"
)

// Client is the typed HTTP client for the payment API, used by the
// customer poller, the authorization prompt and the notification
// action consumer. Error envelopes decode back into the tagged
// domain errors, so callers branch on error kind rather than text.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type createResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId"`
}

type pendingResponse struct {
	Payments []payments.Payment `json:"payments"`
	Count    int                `json:"count"`
}

type confirmResponse struct {
	Success bool             `json:"success"`
	Payment payments.Payment `json:"payment"`
}

type transactionsResponse struct {
	Transactions []payments.Payment `json:"transactions"`
	Count        int                `json:"count"`
}

func (c *Client) CreatePayment(ctx context.Context, req payments.CreatePaymentRequest) (string, error) {
	var resp createResponse
	if err := c.post(ctx, "/api/merchant/create-payment", req, &resp); err != nil {
		return "", err
	}
	return resp.PaymentID, nil
}

func (c *Client) ListPendingPayments(ctx context.Context, userEmail string) ([]payments.Payment, error) {
	var resp pendingResponse
	query := url.Values{"userEmail": {userEmail}}
	if err := c.get(ctx, "/api/merchant/pending-payments", query, &resp); err != nil {
		return nil, err
	}
	return resp.Payments, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
	var resp confirmResponse
	req := payments.ConfirmPaymentRequest{PaymentID: paymentID, Status: status}
	if err := c.post(ctx, "/api/merchant/confirm-payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}

func (c *Client) Transactions(ctx context.Context, merchantEmail string) ([]payments.Payment, error) {
	var resp transactionsResponse
	query := url.Values{"merchantEmail": {merchantEmail}}
	if err := c.get(ctx, "/api/merchant/transactions", query, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) Stats(ctx context.Context, merchantEmail string) (*payments.MerchantStats, error) {
	var resp payments.MerchantStats
	query := url.Values{"merchantEmail": {merchantEmail}}
	if err := c.get(ctx, "/api/merchant/stats", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, &struct{}{})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			if domainErr := payments.ErrFor(envelope.Code); domainErr != nil {
				return domainErr
			}
			if envelope.Error != "" {
				return fmt.Errorf("payment api: %s", envelope.Error)
			}
		}
		return fmt.Errorf("payment api: unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
