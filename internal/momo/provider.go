// Package momo integrates the two mobile-money providers: outbound
// collection requests (STK push) and extraction of their inbound callback
// payloads.
package momo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestResult is the shared outcome shape for a collection request.
type RequestResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Provider initiates a collection from a rider's phone. Implementations
// exist per mobile-money network; callback handling is elsewhere.
type Provider interface {
	Name() string
	RequestPayment(ctx context.Context, referenceID string, amount decimal.Decimal, payerMSISDN, payerMessage, payeeNote string) (*RequestResult, error)
}

// NewReference builds the payment reference embedding the loan id. The
// callback reconciler later recovers the loan id from this token.
func NewReference(loanID int64, provider string, now time.Time) string {
	return fmt.Sprintf("loan_%d_%s_%d", loanID, provider, now.UnixMilli())
}

// NormalizeMSISDN strips non-digits and forces the Uganda country prefix.
func NormalizeMSISDN(msisdn string) string {
	var digits strings.Builder
	for _, r := range msisdn {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if strings.HasPrefix(number, "256") {
		return number
	}
	return "256" + strings.TrimPrefix(number, "0")
}
