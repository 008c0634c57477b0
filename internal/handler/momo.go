package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/momo"
	"github.com/bodacredit/loan-engine/internal/service"
	"github.com/bodacredit/loan-engine/pkg/response"
)

type StkPushRequest struct {
	LoanID   int64  `json:"loan_id" validate:"required,gt=0"`
	Provider string `json:"provider" validate:"required,oneof=MTN AIRTEL"`
}

type StkPushResponse struct {
	ReferenceID string `json:"reference_id"`
	Provider    string `json:"provider"`
	Message     string `json:"message"`
}

// MomoHandler pushes a collection request for a loan's outstanding balance
// to the rider's phone. The outcome arrives later on the callback endpoint.
type MomoHandler struct {
	loans     *service.LoanService
	riders    *service.RiderService
	providers map[string]momo.Provider
	validator *validator.Validate
}

func NewMomoHandler(loans *service.LoanService, riders *service.RiderService, providers ...momo.Provider) *MomoHandler {
	byName := make(map[string]momo.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &MomoHandler{
		loans:     loans,
		riders:    riders,
		providers: byName,
		validator: validator.New(),
	}
}

// StkPush handles POST /momo/stk-push
func (h *MomoHandler) StkPush(w http.ResponseWriter, r *http.Request) {
	var request StkPushRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	provider, ok := h.providers[request.Provider]
	if !ok {
		response.BadRequest(w, "unknown provider", nil)
		return
	}

	loan, err := h.loans.GetLoanByID(r.Context(), request.LoanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if loan.Status == domain.LoanStatusPaid || !loan.OutstandingBalance.IsPositive() {
		response.BadRequest(w, "loan already fully paid", nil)
		return
	}

	rider, err := h.riders.GetRiderByID(r.Context(), loan.RiderID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if rider.PhoneNumber == "" {
		response.BadRequest(w, "rider phone not found", nil)
		return
	}

	referenceID := momo.NewReference(loan.LoanID, provider.Name(), time.Now())
	message := fmt.Sprintf("Fuel loan repayment - Loan #%d", loan.LoanID)
	note := fmt.Sprintf("Loan %d", loan.LoanID)

	result, err := provider.RequestPayment(r.Context(), referenceID, loan.OutstandingBalance, rider.PhoneNumber, message, note)
	if err != nil {
		response.InternalServerError(w, "collection request failed", err)
		return
	}
	if !result.Success {
		response.BadRequest(w, result.Error, nil)
		return
	}

	response.Success(w, StkPushResponse{
		ReferenceID: referenceID,
		Provider:    provider.Name(),
		Message:     "STK push sent",
	})
}
