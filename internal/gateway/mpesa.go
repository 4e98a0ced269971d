// Package gateway holds the outbound HTTP clients for the two payment
// rails. The saga consumes them as black-box capabilities: place a
// collection request and receive a correlation id, place a disbursement
// and receive success or failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/config"
)

// nairobi is the timezone M-Pesa timestamps are expressed in.
var nairobi = time.FixedZone("EAT", 3*60*60)

// STKPushResponse is the outcome of a collection request. CheckoutRequestID
// is the correlation id the asynchronous callback will carry; Simulated
// marks a locally synthesized acceptance produced by the fail-open shim.
type STKPushResponse struct {
	MerchantRequestID   string         `json:"MerchantRequestID"`
	CheckoutRequestID   string         `json:"CheckoutRequestID"`
	ResponseCode        string         `json:"ResponseCode"`
	ResponseDescription string         `json:"ResponseDescription"`
	CustomerMessage     string         `json:"CustomerMessage"`
	Simulated           bool           `json:"simulation,omitempty"`
	Request             map[string]any `json:"Request,omitempty"`
	Timestamp           string         `json:"timestamp"`
}

// MpesaClient talks to the M-Pesa rail (STK push collections).
type MpesaClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passKey        string
	callbackURL    string

	// SimulateOnFailure is the fail-open policy: when set, a transport
	// failure on the collection call is replaced with a synthesized
	// acceptance so the saga can still await a (simulated) callback.
	// This is a simulation shim, not a gateway guarantee; production
	// configurations should run fail-closed.
	simulateOnFailure bool

	httpClient *http.Client
}

// NewMpesaClient builds an M-Pesa client from the service configuration.
func NewMpesaClient(cfg config.Config) *MpesaClient {
	return &MpesaClient{
		baseURL:           strings.TrimRight(cfg.MpesaBaseURL, "/"),
		consumerKey:       cfg.MpesaConsumerKey,
		consumerSecret:    cfg.MpesaConsumerSecret,
		shortCode:         cfg.MpesaShortCode,
		passKey:           cfg.MpesaPassKey,
		callbackURL:       strings.TrimRight(cfg.BaseURL, "/") + "/mpesa/stkpush/callback",
		simulateOnFailure: cfg.MpesaSimulateOnFailure,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Authenticate exchanges the consumer key and secret for a bearer token.
func (c *MpesaClient) Authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	return body.AccessToken, nil
}

// InitiateSTKPush places a collection request for amount against the payer
// phone (already normalized). On transport failure the fail-open policy
// decides whether the error propagates or a simulated acceptance is
// returned. A non-zero response code from the rail is always an error.
func (c *MpesaClient) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, accountReference, description string) (*STKPushResponse, error) {
	if description == "" {
		description = "Interoperability STK Push"
	}
	if len(description) > 255 {
		description = description[:255]
	}

	timestamp := time.Now().In(nairobi).Format("20060102150405")
	merchantRequestID := generateMerchantRequestID()
	checkoutRequestID := generateCheckoutRequestID()

	payload := map[string]any{
		"BusinessShortCode": c.shortCode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount.Round(0).IntPart(),
		"PartyA":            phone,
		"PartyB":            c.shortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.callbackURL,
		"AccountReference":  accountReference,
		"TransactionDesc":   description,
		"ClientReference":   merchantRequestID,
	}

	data, err := c.postSTKPush(ctx, payload)
	if err != nil {
		if !c.simulateOnFailure {
			return nil, fmt.Errorf("stk push: %w", err)
		}
		log.Printf("[mpesa] collection call failed, substituting simulated acceptance: %v", err)
		return &STKPushResponse{
			MerchantRequestID:   merchantRequestID,
			CheckoutRequestID:   checkoutRequestID,
			ResponseCode:        "0",
			ResponseDescription: "Simulated STK push accepted",
			CustomerMessage:     "Simulated STK push request sent to handset",
			Simulated:           true,
			Request:             payload,
			Timestamp:           time.Now().In(nairobi).Format(time.RFC3339),
		}, nil
	}

	if data.MerchantRequestID == "" {
		data.MerchantRequestID = merchantRequestID
	}
	if data.CheckoutRequestID == "" {
		data.CheckoutRequestID = checkoutRequestID
	}
	data.Request = payload
	data.Timestamp = time.Now().In(nairobi).Format(time.RFC3339)

	if data.ResponseCode != "0" {
		return nil, fmt.Errorf("stk push: rail rejected request (code %q: %s)", data.ResponseCode, data.ResponseDescription)
	}
	return data, nil
}

func (c *MpesaClient) postSTKPush(ctx context.Context, payload map[string]any) (*STKPushResponse, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var data STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &data, nil
}

// password derives the STK push password for the given timestamp.
func (c *MpesaClient) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.shortCode + c.passKey + timestamp))
}

func generateMerchantRequestID() string {
	return fmt.Sprintf("MR%d%s", time.Now().Unix(), strings.ToUpper(hex32()[:6]))
}

func generateCheckoutRequestID() string {
	return "ws_CO_" + hex32()
}

func hex32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
