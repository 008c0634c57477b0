package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/config"
)

// airtelProvider collects over the Airtel Money merchant payments API.
type airtelProvider struct {
	config config.AirtelConfig
	client *http.Client
}

func NewAirtelProvider(cfg config.AirtelConfig) Provider {
	return &airtelProvider{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *airtelProvider) Name() string { return ProviderNameAirtel }

type airtelPayRequest struct {
	Reference   string            `json:"reference"`
	Subscriber  airtelSubscriber  `json:"subscriber"`
	Transaction airtelTransaction `json:"transaction"`
}

type airtelSubscriber struct {
	Country  string `json:"country"`
	Currency string `json:"currency"`
	MSISDN   string `json:"msisdn"`
}

type airtelTransaction struct {
	Amount   string `json:"amount"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	ID       string `json:"id"`
}

func (p *airtelProvider) RequestPayment(ctx context.Context, referenceID string, amount decimal.Decimal, payerMSISDN, _ string, _ string) (*RequestResult, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return &RequestResult{Success: false, Error: "Airtel credentials not configured"}, nil
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return &RequestResult{Success: false, Error: err.Error()}, nil
	}

	body := airtelPayRequest{
		Reference: referenceID,
		Subscriber: airtelSubscriber{
			Country:  "UG",
			Currency: "UGX",
			MSISDN:   NormalizeMSISDN(payerMSISDN),
		},
		Transaction: airtelTransaction{
			Amount:   amount.StringFixed(2),
			Country:  "UG",
			Currency: "UGX",
			ID:       referenceID,
		},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/merchant/v1/payments/", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &RequestResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return &RequestResult{Success: true, TransactionID: referenceID}, nil
	}

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &RequestResult{Success: false, Error: string(errBody)}, nil
}

func (p *airtelProvider) fetchToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     p.config.ClientID,
		"client_secret": p.config.ClientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/auth/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("airtel token: %s", string(errBody))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.AccessToken, nil
}
