package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kukuhub/config"
)

const (
	authEndpoint    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushEndpoint = "/mpesa/stkpush/v1/processrequest"
)

// Client talks to the Safaricom Daraja API. It obtains an OAuth token per
// request; the sandbox tokens are short-lived and the call volume here does
// not justify caching them.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
	// now is swappable for deterministic password/timestamp tests.
	now func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.MpesaBaseURL,
		now:        time.Now,
	}
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResult struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ErrorMessage        string `json:"errorMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// STKPush sends a push-payment prompt to the customer's phone and returns
// the CheckoutRequestID correlating the eventual callback.
func (c *Client) STKPush(ctx context.Context, phoneNumber string, amount float64) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("mpesa auth: %w", err)
	}

	timestamp := c.now().Format("20060102150405")
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.MpesaShortCode,
		Password:          stkPassword(c.cfg.MpesaShortCode, c.cfg.MpesaPasskey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            int(amount),
		PartyA:            phoneNumber,
		PartyB:            c.cfg.MpesaShortCode,
		PhoneNumber:       phoneNumber,
		CallBackURL:       c.cfg.MpesaCallbackURL,
		AccountReference:  c.cfg.MpesaAccountRef,
		TransactionDesc:   "Payment for products",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa stk push: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa stk push: status %d: %s", resp.StatusCode, raw)
	}

	var result stkPushResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if result.ResponseCode != "0" {
		if result.ErrorMessage != "" {
			return "", fmt.Errorf("mpesa stk push rejected: %s", result.ErrorMessage)
		}
		return "", fmt.Errorf("mpesa stk push rejected: %s", result.ResponseDescription)
	}

	return result.CheckoutRequestID, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(c.cfg.MpesaConsumerKey + ":" + c.cfg.MpesaConsumerSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+authEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, raw)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token request: no access token in response")
	}

	return tr.AccessToken, nil
}

// stkPassword is base64(shortcode + passkey + timestamp), the Daraja STK
// authentication scheme.
func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}
