package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CheckoutSessionParams describes a hosted checkout session to create on the
// payment processor. Metadata is echoed back verbatim on webhook events and
// is the only correlation channel between a session and our records.
type CheckoutSessionParams struct {
	Amount      float64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the processor's handle for a checkout attempt. ID is the
// external session id used as the idempotency key for webhook processing.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the payment processor.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With(zap.String("client", "payment")),
	}
}

type createSessionRequest struct {
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata"`
}

func (c *httpClient) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error) {
	payload := createSessionRequest{
		AmountTotal: toMinorUnits(params.Amount),
		Currency:    params.Currency,
		Description: params.Description,
		SuccessURL:  params.SuccessURL,
		CancelURL:   params.CancelURL,
		Metadata:    params.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("Payment processor rejected session request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	c.log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Float64("amount", params.Amount),
	)

	return &session, nil
}

// toMinorUnits converts a decimal amount to integer minor units for the wire
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
