package momo

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Notification is what the reconciler needs from a raw callback payload.
// Fields the payload does not carry come back empty/zero; extraction never
// fails, so even junk input still gets audited.
type Notification struct {
	ExternalRef string
	Status      string
	Amount      decimal.Decimal
}

// Per-provider key fallbacks, in lookup order, matching what each network
// actually sends across its API versions.
var (
	mtnRefKeys    = []string{"referenceId", "reference", "externalId", "financialTransactionId"}
	mtnStatusKeys = []string{"status"}
	mtnAmountKeys = []string{"amount", "debitAmount"}

	airtelRefKeys    = []string{"reference", "transaction_id", "id"}
	airtelStatusKeys = []string{"status"}
	airtelAmountKeys = []string{"amount"}

	successVocab = map[string]map[string]bool{
		ProviderNameMTN:    toSet("SUCCESSFUL", "SUCCESS", "COMPLETED"),
		ProviderNameAirtel: toSet("TS", "TSI", "SUCCESS", "COMPLETED", "SUCCESSFUL"),
	}

	loanRefPattern = regexp.MustCompile(`(?i)loan[_-]?(\d+)`)
)

const (
	ProviderNameMTN    = "MTN"
	ProviderNameAirtel = "AIRTEL"
)

// Extract pulls reference, status and amount out of a loosely-structured
// provider payload. Pure and total: unknown providers or missing fields
// yield zero values, never an error.
func Extract(provider string, raw map[string]interface{}) Notification {
	var n Notification

	switch provider {
	case ProviderNameMTN:
		n.ExternalRef = firstString(raw, mtnRefKeys)
		n.Status = firstString(raw, mtnStatusKeys)
		if n.Status == "" {
			n.Status = nestedString(raw, "result", "result")
		}
		n.Amount = firstAmount(raw, mtnAmountKeys)
	case ProviderNameAirtel:
		n.ExternalRef = firstString(raw, airtelRefKeys)
		n.Status = firstString(raw, airtelStatusKeys)
		if n.Status == "" {
			n.Status = nestedString(raw, "transaction", "status")
		}
		if n.Status == "" {
			n.Status = nestedString(raw, "result", "status")
		}
		n.Amount = firstAmount(raw, airtelAmountKeys)
		if n.Amount.IsZero() {
			n.Amount = nestedAmount(raw, "transaction", "amount")
		}
	}

	return n
}

// IsSuccessStatus checks the status against the provider's success
// vocabulary, case-insensitively.
func IsSuccessStatus(provider, status string) bool {
	vocab, ok := successVocab[provider]
	if !ok {
		return false
	}
	return vocab[strings.ToUpper(status)]
}

// LoanIDFromReference recovers the loan id embedded in a payment reference
// of the form loan_<id>_....
func LoanIDFromReference(ref string) (int64, bool) {
	match := loanRefPattern.FindStringSubmatch(ref)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func firstString(raw map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s := asString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func nestedString(raw map[string]interface{}, outer, inner string) string {
	nested, ok := raw[outer].(map[string]interface{})
	if !ok {
		return ""
	}
	return asString(nested[inner])
}

func firstAmount(raw map[string]interface{}, keys []string) decimal.Decimal {
	for _, key := range keys {
		if d := asAmount(raw[key]); d.IsPositive() {
			return d
		}
	}
	return decimal.Zero
}

func nestedAmount(raw map[string]interface{}, outer, inner string) decimal.Decimal {
	nested, ok := raw[outer].(map[string]interface{})
	if !ok {
		return decimal.Zero
	}
	return asAmount(nested[inner])
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asAmount(v interface{}) decimal.Decimal {
	switch a := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(a))
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(a)
	default:
		return decimal.Zero
	}
}
