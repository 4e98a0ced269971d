package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/config"
)

// DisbursementResponse is the outcome of a B2C paybill-to-customer call on
// the Airtel rail.
type DisbursementResponse struct {
	StatusCode string         `json:"status_code"`
	Message    string         `json:"message"`
	Reference  string         `json:"reference"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// AirtelClient talks to the Airtel Money rail (B2C disbursements).
type AirtelClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	pin          string

	httpClient *http.Client
}

// NewAirtelClient builds an Airtel Money client from the service
// configuration.
func NewAirtelClient(cfg config.Config) *AirtelClient {
	return &AirtelClient{
		baseURL:      strings.TrimRight(cfg.AirtelBaseURL, "/"),
		clientID:     cfg.AirtelClientID,
		clientSecret: cfg.AirtelClientSecret,
		pin:          cfg.AirtelPIN,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Authenticate exchanges the client credentials for a bearer token.
func (c *AirtelClient) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", fmt.Errorf("marshal auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request: unexpected status %d", resp.StatusCode)
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	return data.AccessToken, nil
}

// PaybillToCustomer disburses amount from the paybill to the customer
// msisdn (already normalized). A non-200 rail status code is a failure.
func (c *AirtelClient) PaybillToCustomer(ctx context.Context, paybillID, msisdn string, amount decimal.Decimal, currency, country, reference string) (*DisbursementResponse, error) {
	if reference == "" {
		reference = GenerateAirtelReference()
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("paybill to customer: %w", err)
	}

	payload := map[string]any{
		"payee": map[string]string{
			"msisdn":      msisdn,
			"wallet_type": "NORMAL",
		},
		"reference": reference,
		"pin":       c.pin,
		"transaction": map[string]any{
			"amount": amount,
			"id":     reference,
			"type":   "B2C",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/paybill/v1/paybill-to-customer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Country", country)
	req.Header.Set("X-Currency", currency)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paybill to customer: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	code, message := railStatus(raw)
	if code != "200" {
		return nil, fmt.Errorf("paybill to customer: rail rejected transfer (code %q: %s)", code, message)
	}

	return &DisbursementResponse{
		StatusCode: code,
		Message:    message,
		Reference:  reference,
		Raw:        raw,
	}, nil
}

// GenerateAirtelReference creates a unique transaction reference for the
// Airtel rail.
func GenerateAirtelReference() string {
	return fmt.Sprintf("AIRTEL%d%s", time.Now().Unix(), strings.ToUpper(hex32()[:8]))
}

// railStatus extracts the status code and message from a raw Airtel
// response body.
func railStatus(raw map[string]any) (code, message string) {
	status, ok := raw["status"].(map[string]any)
	if !ok {
		return "", ""
	}
	if v, ok := status["code"].(string); ok {
		code = v
	}
	if v, ok := status["message"].(string); ok {
		message = v
	}
	return code, message
}
