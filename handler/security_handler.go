package handler

import (
	"net/http"

	"saveai-api/common"
	"saveai-api/model"

	"github.com/google/uuid"
)

type ITokenIssuer interface {
	GenerateToken(userID uuid.UUID, permissions []string) (*model.TokenResponse, error)
}

type SecurityHandler struct {
	tokens       ITokenIssuer
	transactions ITransactionService
}

func NewSecurityHandler(tokens ITokenIssuer, transactions ITransactionService) *SecurityHandler {
	return &SecurityHandler{tokens: tokens, transactions: transactions}
}

// IssueToken godoc
// @Summary      Issue an access token
// @Description  Signs a token for the given user and permissions. Requires the admin permission.
// @Tags         security
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.TokenRequest true "Token subject and permissions"
// @Success      201  {object}  common.Envelope{data=model.TokenResponse}
// @Failure      400  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /api/v1/security/token [post]
func (h *SecurityHandler) IssueToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TokenRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	token, err := h.tokens.GenerateToken(req.UserID, req.Permissions)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not issue token", err)
	}

	common.Respond(w, http.StatusCreated, token)
	return nil
}

// ValidateTransaction godoc
// @Summary      Dry-run transaction validation
// @Description  Runs the security checks a new transaction would face without storing it.
// @Tags         security
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transaction body model.CreateTransactionRequest true "Transaction to check"
// @Success      200  {object}  common.Envelope{data=model.SecurityValidation}
// @Failure      400  {object}  common.AppError
// @Router       /api/v1/security/validate [post]
func (h *SecurityHandler) ValidateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.CreateTransactionRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	validation, err := h.transactions.ValidateTransaction(r.Context(), req, caller)
	if err != nil {
		return serviceError(err, "Could not validate transaction")
	}

	common.Respond(w, http.StatusOK, validation)
	return nil
}
