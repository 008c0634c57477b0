package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bodacredit/loan-engine/internal/momo"
	"github.com/bodacredit/loan-engine/internal/service"
	"github.com/bodacredit/loan-engine/pkg/response"
)

// CallbackHandler receives asynchronous payment notifications from the
// mobile-money providers. The acknowledgment is always success-shaped:
// providers retry on anything else, and the reconciler's dedup absorbs the
// retries safely.
type CallbackHandler struct {
	callbacks *service.CallbackService
	logger    *slog.Logger
}

func NewCallbackHandler(callbacks *service.CallbackService, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks, logger: logger}
}

// MTNCallback handles POST /callbacks/mtn
func (h *CallbackHandler) MTNCallback(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, momo.ProviderNameMTN)
}

// AirtelCallback handles POST /callbacks/airtel
func (h *CallbackHandler) AirtelCallback(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, momo.ProviderNameAirtel)
}

func (h *CallbackHandler) handle(w http.ResponseWriter, r *http.Request, provider string) {
	raw := map[string]interface{}{}
	// Malformed bodies still get audited as an empty payload.
	_ = json.NewDecoder(r.Body).Decode(&raw)

	outcome, err := h.callbacks.Process(r.Context(), provider, raw)
	if err != nil {
		h.logger.Error("callback processing rolled back",
			"provider", provider,
			"error", err,
		)
	} else if outcome.PaymentApplied {
		h.logger.Info("callback payment applied",
			"provider", provider,
			"loan_id", outcome.LoanID,
			"callback_id", outcome.CallbackID,
		)
	}

	response.Success(w, map[string]string{"status": "accepted"})
}
