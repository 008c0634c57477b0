package handler

import (
	"errors"
	"net/http"

	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
	"github.com/bodacredit/loan-engine/pkg/response"
)

// writeBusinessError maps typed service failures onto HTTP statuses. The
// services themselves never see HTTP.
func writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *apperrors.BusinessError
	if !errors.As(err, &businessErr) {
		response.InternalServerError(w, "internal error", err)
		return
	}

	status := http.StatusInternalServerError
	switch businessErr.Code {
	case apperrors.ErrCodeRiderNotFound, apperrors.ErrCodeLoanNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeRiderNotActive,
		apperrors.ErrCodeRiderHasOpenLoan,
		apperrors.ErrCodeLoanAlreadyPaid,
		apperrors.ErrCodeInvalidAmount,
		apperrors.ErrCodeAmountExceedsBalance,
		apperrors.ErrCodePenaltyExceedsCap:
		status = http.StatusBadRequest
	case apperrors.ErrCodeTransient:
		// Safe to retry the whole request from scratch.
		status = http.StatusConflict
	}

	response.ErrorWithCode(w, status, businessErr.Code, businessErr.Message, businessErr.Err)
}
