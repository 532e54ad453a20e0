package handler

import (
	"context"
	"net/http"
	"strconv"

	"saveai-api/common"
	"saveai-api/model"

	"github.com/google/uuid"
)

type ITaxService interface {
	CalculateVATForTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.VATCalculation, error)
	GenerateReport(ctx context.Context, userID uuid.UUID, year int) (*model.TaxReport, error)
}

type TaxHandler struct {
	service ITaxService
}

func NewTaxHandler(s ITaxService) *TaxHandler {
	return &TaxHandler{service: s}
}

// CalculateVAT godoc
// @Summary      Calculate VAT for a transaction
// @Tags         tax
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.VATRequest true "Transaction to tax"
// @Success      200  {object}  common.Envelope{data=model.VATCalculation}
// @Failure      400  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/tax/calculate [post]
func (h *TaxHandler) CalculateVAT(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.VATRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	calc, err := h.service.CalculateVATForTransaction(r.Context(), req.TransactionID, caller)
	if err != nil {
		return serviceError(err, "Could not calculate VAT")
	}

	common.Respond(w, http.StatusOK, calc)
	return nil
}

// TaxReport godoc
// @Summary      Annual VAT report
// @Description  Summarizes the caller's completed transactions for the year. Admins may pass user_id.
// @Tags         tax
// @Produce      json
// @Security     BearerAuth
// @Param        year     path   int     true   "Calendar year"
// @Param        user_id  query  string  false  "User to report on (admin only)"
// @Success      200  {object}  common.Envelope{data=model.TaxReport}
// @Failure      400  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /api/v1/tax/report/{year} [get]
func (h *TaxHandler) TaxReport(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid year in URL path", err)
	}

	userID, appErr := targetUser(r, caller)
	if appErr != nil {
		return appErr
	}

	report, err := h.service.GenerateReport(r.Context(), userID, year)
	if err != nil {
		return serviceError(err, "Could not generate tax report")
	}

	common.Respond(w, http.StatusOK, report)
	return nil
}

// targetUser resolves whose data a reporting request reads: the caller by
// default, or the user_id query parameter for admins.
func targetUser(r *http.Request, caller *model.AppClaims) (uuid.UUID, *common.AppError) {
	self, err := caller.UserID()
	if err != nil {
		return uuid.Nil, common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", err)
	}

	requested, appErr := optionalUUIDParam(r.URL.Query().Get("user_id"))
	if appErr != nil {
		return uuid.Nil, appErr
	}
	if requested != nil && *requested != self {
		if !caller.IsAdmin() {
			return uuid.Nil, common.NewAppError(http.StatusForbidden, "permission denied", nil)
		}
		return *requested, nil
	}

	if !caller.Has(model.PermissionTransactionsRead) {
		return uuid.Nil, common.NewAppError(http.StatusForbidden, "permission denied", nil)
	}
	return self, nil
}
