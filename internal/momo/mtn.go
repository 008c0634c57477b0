package momo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/config"
)

// mtnProvider collects over the MTN MoMo Collections API: basic-auth token
// fetch, then an asynchronous request-to-pay whose outcome arrives on the
// callback endpoint.
type mtnProvider struct {
	config config.MTNConfig
	client *http.Client
}

func NewMTNProvider(cfg config.MTNConfig) Provider {
	return &mtnProvider{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *mtnProvider) Name() string { return ProviderNameMTN }

type mtnPayRequest struct {
	Amount       string   `json:"amount"`
	Currency     string   `json:"currency"`
	ExternalID   string   `json:"externalId"`
	Payer        mtnPayer `json:"payer"`
	PayerMessage string   `json:"payerMessage"`
	PayeeNote    string   `json:"payeeNote"`
}

type mtnPayer struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

func (p *mtnProvider) RequestPayment(ctx context.Context, referenceID string, amount decimal.Decimal, payerMSISDN, payerMessage, payeeNote string) (*RequestResult, error) {
	if p.config.SubscriptionKey == "" || p.config.APIKey == "" || p.config.APIUser == "" {
		return &RequestResult{Success: false, Error: "MTN MoMo credentials not configured"}, nil
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return &RequestResult{Success: false, Error: err.Error()}, nil
	}

	body := mtnPayRequest{
		Amount:       amount.StringFixed(2),
		Currency:     "UGX",
		ExternalID:   referenceID,
		Payer:        mtnPayer{PartyIDType: "MSISDN", PartyID: NormalizeMSISDN(payerMSISDN)},
		PayerMessage: truncate(payerMessage, 255),
		PayeeNote:    truncate(payeeNote, 255),
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.config.SubscriptionKey)
	req.Header.Set("X-Reference-Id", referenceID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &RequestResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode < 300 {
		return &RequestResult{Success: true, TransactionID: referenceID}, nil
	}

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &RequestResult{Success: false, Error: string(errBody)}, nil
}

func (p *mtnProvider) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(p.config.APIUser + ":" + p.config.APIKey))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.config.SubscriptionKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mtn token: %s", string(errBody))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.AccessToken, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
