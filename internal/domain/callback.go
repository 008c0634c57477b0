package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProviderMTN    = "MTN"
	ProviderAirtel = "AIRTEL"
)

// PaymentCallback is the audit row written for every inbound provider
// notification, valid or junk. The processed flag flips exactly once per
// (provider, external_ref) group that results in an applied payment.
type PaymentCallback struct {
	CallbackID  int64           `json:"callback_id" db:"callback_id"`
	Provider    string          `json:"provider" db:"provider"`
	RawPayload  []byte          `json:"raw_payload" db:"raw_payload"`
	ExternalRef *string         `json:"external_ref" db:"external_ref"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Status      *string         `json:"status" db:"status"`
	Processed   bool            `json:"processed" db:"processed"`
	LoanID      *int64          `json:"loan_id" db:"loan_id"`
	ReceivedAt  time.Time       `json:"received_at" db:"received_at"`
}

// CallbackOutcome describes what a single inbound callback ended up doing.
// The HTTP acknowledgment never depends on it; it feeds tests and logs.
type CallbackOutcome struct {
	CallbackID     int64
	Duplicate      bool
	PaymentApplied bool
	LoanID         int64
}
