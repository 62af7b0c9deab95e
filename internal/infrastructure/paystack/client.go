package paystack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// Webhook event types this service reacts to.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// SignatureHeader carries the hex HMAC-SHA-512 digest of the raw body.
const SignatureHeader = "x-paystack-signature"

// WebhookEvent is the subset of a Paystack notification body this service
// reads. The raw body must be retained for signature verification; this
// struct is only decoded after the digest has been checked.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string  `json:"reference"`
		Amount    int64   `json:"amount"` // kobo
		Status    string  `json:"status"`
		PaidAt    *string `json:"paid_at"`
	} `json:"data"`
}

// Transaction is the result of initializing a hosted checkout.
type Transaction struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Verification is the result of a server-side transaction lookup.
type Verification struct {
	Reference string `json:"reference"`
	Status    string `json:"status"` // "success", "failed", "abandoned", ...
	Amount    int64  `json:"amount"` // kobo
}

// Client talks to the Paystack REST API.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a hosted checkout session. Amount is in
// kobo. Paystack generates the transaction reference, which becomes the
// order's paymentRef.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountKobo int64, callbackURL string) (*Transaction, error) {
	payload := map[string]interface{}{
		"email":  email,
		"amount": amountKobo,
	}
	if callbackURL != "" {
		payload["callback_url"] = callbackURL
	}

	var tx Transaction
	if err := c.post(ctx, "/transaction/initialize", payload, &tx); err != nil {
		return nil, fmt.Errorf("paystack initialize: %w", err)
	}
	return &tx, nil
}

// VerifyTransaction fetches the authoritative charge state for a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	var v Verification
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.get(ctx, path, &v); err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	return &v, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return fmt.Errorf("api error (http %d): %s", resp.StatusCode, env.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
