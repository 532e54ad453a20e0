package handler

import (
	"context"
	"net/http"
	"time"

	"saveai-api/common"
	"saveai-api/model"

	"github.com/google/uuid"
)

// ITransactionService is the transaction behaviour the HTTP layer depends on.
type ITransactionService interface {
	CreateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.Transaction, error)
	ValidateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.SecurityValidation, error)
	GetTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.Transaction, error)
	ListUserTransactions(ctx context.Context, userID *uuid.UUID, filter model.TransactionFilter, caller *model.AppClaims) ([]*model.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, caller *model.AppClaims) (*model.Transaction, error)
	VerifyByHash(ctx context.Context, hash string, caller *model.AppClaims) (*model.VerificationResult, error)
}

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service ITransactionService
}

func NewTransactionHandler(s ITransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransaction godoc
// @Summary      Create a transaction
// @Description  Validates the transaction against amount limits, ownership and the rolling daily limit, stores it and anchors its hash on chain.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transaction body model.CreateTransactionRequest true "Transaction to create"
// @Success      201  {object}  common.Envelope{data=model.Transaction}
// @Failure      400  {object}  common.AppError "Invalid amount, currency or type"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Security validation failed"
// @Failure      502  {object}  common.AppError "Blockchain attestation failed"
// @Failure      500  {object}  common.AppError
// @Router       /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.CreateTransactionRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	transaction, err := h.service.CreateTransaction(r.Context(), req, caller)
	if err != nil {
		return serviceError(err, "Could not create transaction")
	}

	common.Respond(w, http.StatusCreated, transaction)
	return nil
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  Lists the caller's transactions newest first. Admins may pass user_id to list another user's.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        start    query  string  false  "Earliest timestamp (RFC3339 or YYYY-MM-DD)"
// @Param        end      query  string  false  "Latest timestamp (RFC3339 or YYYY-MM-DD)"
// @Param        type     query  string  false  "Transaction type"  Enums(deposit, withdrawal, transfer, payment)
// @Param        status   query  string  false  "Transaction status"  Enums(pending, completed, failed, cancelled)
// @Param        user_id  query  string  false  "User to list (admin only)"
// @Success      200  {object}  common.Envelope{data=[]model.Transaction}
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	q := r.URL.Query()
	var filter model.TransactionFilter
	var err error
	if filter.Start, err = parseTimeParam(q.Get("start"), false); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid start parameter", err)
	}
	if filter.End, err = parseTimeParam(q.Get("end"), true); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid end parameter", err)
	}
	filter.Type = model.TransactionType(q.Get("type"))
	filter.Status = model.TransactionStatus(q.Get("status"))

	userID, appErr := optionalUUIDParam(q.Get("user_id"))
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListUserTransactions(r.Context(), userID, filter, caller)
	if err != nil {
		return serviceError(err, "Could not retrieve transactions")
	}

	common.Respond(w, http.StatusOK, transactions)
	return nil
}

// GetTransaction godoc
// @Summary      Get a transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Transaction ID"
// @Success      200  {object}  common.Envelope{data=model.Transaction}
// @Failure      400  {object}  common.AppError "Invalid transaction ID"
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction ID in URL path", err)
	}

	transaction, err := h.service.GetTransaction(r.Context(), id, caller)
	if err != nil {
		return serviceError(err, "Could not retrieve transaction")
	}

	common.Respond(w, http.StatusOK, transaction)
	return nil
}

// UpdateTransactionStatus godoc
// @Summary      Change a transaction's status
// @Description  Only pending transactions can move, to completed, failed or cancelled.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string                     true  "Transaction ID"
// @Param        status  body  model.UpdateStatusRequest  true  "New status"
// @Success      200  {object}  common.Envelope{data=model.Transaction}
// @Failure      400  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      409  {object}  common.AppError "Transition not allowed"
// @Router       /api/v1/transactions/{id}/status [patch]
func (h *TransactionHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction ID in URL path", err)
	}

	var req model.UpdateStatusRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	transaction, err := h.service.UpdateTransactionStatus(r.Context(), id, req.Status, caller)
	if err != nil {
		return serviceError(err, "Could not update transaction status")
	}

	common.Respond(w, http.StatusOK, transaction)
	return nil
}

// parseTimeParam accepts RFC3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func parseTimeParam(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

func optionalUUIDParam(v string) (*uuid.UUID, *common.AppError) {
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, common.NewAppError(http.StatusBadRequest, "Invalid user_id parameter", err)
	}
	return &id, nil
}
