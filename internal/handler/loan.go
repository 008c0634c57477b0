package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/service"
	"github.com/bodacredit/loan-engine/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, payments *service.PaymentService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		payments:  payments,
		validator: validator.New(),
	}
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, err := h.loans.CreateLoan(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, loan)
}

// GetActiveLoans handles GET /loans/active
func (h *LoanHandler) GetActiveLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.GetActiveLoans(r.Context(), agentFilter(r))
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanListResponse{Loans: loans})
}

// GetOverdueLoans handles GET /loans/overdue
func (h *LoanHandler) GetOverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.GetOverdueLoans(r.Context(), agentFilter(r))
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanListResponse{Loans: loans})
}

// GetLoan handles GET /loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	detail, err := h.loans.GetLoanDetail(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, detail)
}

// RecordPayment handles POST /loans/{loanId}/payments
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	newBalance, err := h.payments.RecordPayment(r.Context(), loanID, request.AmountPaid, request.PaymentMethod, request.ReceivedBy)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	loan, err := h.loans.GetLoanByID(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.RecordPaymentResponse{NewBalance: newBalance, Loan: loan})
}

// AdjustLoan handles PATCH /loans/{loanId}/adjust
func (h *LoanHandler) AdjustLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	var request domain.AdjustLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, err := h.loans.AdjustLoan(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func agentFilter(r *http.Request) *int64 {
	raw := r.URL.Query().Get("agent_id")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
